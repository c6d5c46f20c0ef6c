// Package models - các model thuộc domain auth.
package models

// Token chứa token xác thực gắn với một thiết bị (hwid)
type Token struct {
	Hwid     string `json:"hwid" bson:"hwid"`
	JwtToken string `json:"jwtToken" bson:"jwtToken"`
}
