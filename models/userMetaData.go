package models

import "encoding/json"

// UserMetaData is the raw per-driver metadata row synced from the sign-up
// flow. raw_user_meta_data carries a free-form JSON document; the only key
// this service reads is "affiliation", a list whose entries are either plain
// strings or objects with a "name" field.
type UserMetaData struct {
	ArgyleAccount   string          `gorm:"primaryKey;size:64" json:"argyle_account"`
	RawUserMetaData json.RawMessage `gorm:"type:jsonb" json:"raw_user_meta_data"`
}

func (UserMetaData) TableName() string {
	return "user_meta_data"
}
