package recommender_test

import (
	"errors"
	"testing"

	"basket-recs/internal/domain/entity"
	"basket-recs/internal/recommender"
	"basket-recs/internal/recommender/encoding"
	"basket-recs/internal/recommender/factorize"
	"basket-recs/internal/recommender/matrix"
)

func validSnapshot(t *testing.T) *recommender.Snapshot {
	t.Helper()
	return newSnapshot(t,
		[]string{"u0", "u1"},
		[]string{"Apples", "Bread", "Carrots"},
		[][]float64{
			{1, 0, 1},
			{0, 1, 0},
		})
}

func TestSnapshotValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*recommender.Snapshot)
		ok     bool
	}{
		{
			name:   "valid",
			mutate: func(*recommender.Snapshot) {},
			ok:     true,
		},
		{
			name:   "missing matrix",
			mutate: func(s *recommender.Snapshot) { s.Interactions = nil },
		},
		{
			name:   "missing model",
			mutate: func(s *recommender.Snapshot) { s.Model = nil },
		},
		{
			name: "row count disagrees with user registry",
			mutate: func(s *recommender.Snapshot) {
				s.Interactions = matrix.NewCSR(3, 3)
			},
		},
		{
			name: "col count disagrees with product registry",
			mutate: func(s *recommender.Snapshot) {
				s.Interactions = matrix.NewCSR(2, 4)
			},
		},
		{
			name: "unfitted model",
			mutate: func(s *recommender.Snapshot) {
				s.Model = factorize.NewTruncatedSVD(3)
			},
		},
		{
			name: "model feature width disagrees with matrix",
			mutate: func(s *recommender.Snapshot) {
				s.Model = identityModel(4)
			},
		},
		{
			name: "registry drifted behind matrix",
			mutate: func(s *recommender.Snapshot) {
				reg, err := encoding.NewRegistry([]string{"u0", "u1", "u2"})
				if err != nil {
					t.Fatalf("registry: %v", err)
				}
				s.Users = reg
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := validSnapshot(t)
			tc.mutate(snap)
			err := snap.Validate()
			if tc.ok {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, entity.ErrSnapshotCorrupt) {
				t.Fatalf("error = %v, want ErrSnapshotCorrupt", err)
			}
		})
	}
}
