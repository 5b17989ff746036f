package models

import "time"

type Upload struct {
	FileID      string    `firestore:"fileId" json:"fileId"`
	UID         string    `firestore:"uid" json:"-"`
	FileName    string    `firestore:"fileName" json:"fileName"`
	ContentType string    `firestore:"contentType" json:"contentType"`
	Size        int64     `firestore:"size" json:"size"`
	Path        string    `firestore:"path" json:"path"`
	Headers     []string  `firestore:"headers" json:"headers"`
	RowCount    int       `firestore:"rowCount" json:"rowCount"`
	ColumnCount int       `firestore:"columnCount" json:"columnCount"`
	CreatedAt   time.Time `firestore:"createdAt" json:"createdAt"`
}
