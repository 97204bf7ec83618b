package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Document references a single file attached to a job.
type Document struct {
	FileName   string    `json:"file_name"`
	Key        string    `json:"key"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// DocumentList is a JSONB-backed ordered list of document references.
type DocumentList []Document

// Value marshals the list to JSON for persistence.
func (l DocumentList) Value() (driver.Value, error) {
	if l == nil {
		l = DocumentList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal document list: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSON payload into the list.
func (l *DocumentList) Scan(value interface{}) error {
	if value == nil {
		*l = DocumentList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported document list type %T", value)
	}
	if len(data) == 0 {
		*l = DocumentList{}
		return nil
	}
	return json.Unmarshal(data, l)
}

// Expense is a free-form charge entry entered against a shipment.
type Expense struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// ExpenseList is a JSONB-backed list of expense entries.
type ExpenseList []Expense

// Value marshals the list to JSON for persistence.
func (l ExpenseList) Value() (driver.Value, error) {
	if l == nil {
		l = ExpenseList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal expense list: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSON payload into the list.
func (l *ExpenseList) Scan(value interface{}) error {
	if value == nil {
		*l = ExpenseList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported expense list type %T", value)
	}
	if len(data) == 0 {
		*l = ExpenseList{}
		return nil
	}
	return json.Unmarshal(data, l)
}
