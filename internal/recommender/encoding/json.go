package encoding

import json "github.com/goccy/go-json"

func marshalIDs(ids []string) ([]byte, error) {
	return json.Marshal(ids)
}

func unmarshalIDs(data []byte) ([]string, error) {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
