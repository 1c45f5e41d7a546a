package model

import "campusbridge/platform"

func InstallDB() {
	db := platform.DB
	if err := db.AutoMigrate(
		&User{},
		&StudentAuthorizationRequest{},
		&Posting{},
		&Application{},
		&Billing{},
		&ChatSession{},
		&ChatMessage{},
		&OpenAIAPILog{}); err != nil {
		panic(err)
	}
}
