package handlers

import (
	"encoding/json"

	"gorm.io/datatypes"
)

func encodeStringList(items []string) datatypes.JSON {
	if len(items) == 0 {
		return nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func decodeStringList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}
