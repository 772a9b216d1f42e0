package models

import (
	"bytes"
	"encoding/json"
)

// RowID is the identity the record store assigns to a row. Stores in the
// wild answer with either numbers or strings, so both decode into the
// same textual form.
type RowID string

func (id *RowID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RowID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = RowID(n.String())
	return nil
}

func (id RowID) String() string {
	return string(id)
}
