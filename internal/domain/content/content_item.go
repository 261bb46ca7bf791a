package content

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Kind string

const (
	KindDocument Kind = "document"
	KindVideo    Kind = "video"
	KindImage    Kind = "image"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusError      Status = "error"
)

func (s Status) Valid() bool {
	switch s {
	case StatusProcessing, StatusReady, StatusError:
		return true
	}
	return false
}

type ContentItem struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string         `gorm:"column:title;not null" json:"title"`
	Description    string         `gorm:"column:description" json:"description"`
	ContentType    Kind           `gorm:"column:content_type;not null;index" json:"content_type"`
	StorageKey     string         `gorm:"column:storage_key;not null" json:"storage_key"`
	OriginalName   string         `gorm:"column:original_name" json:"original_name"`
	MimeType       string         `gorm:"column:mime_type" json:"mime_type"`
	SizeBytes      int64          `gorm:"column:size_bytes" json:"size_bytes"`
	ExtractedData  datatypes.JSON `gorm:"column:extracted_data" json:"extracted_data,omitempty"`
	Status         Status         `gorm:"column:status;not null;default:'processing';index" json:"status"`
	ErrorMessage   string         `gorm:"column:error_message" json:"error_message,omitempty"`
	CreatedBy      uuid.UUID      `gorm:"type:uuid;column:created_by;not null;index" json:"created_by"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;column:organization_id;not null;index" json:"organization_id"`
	CreatedAt      time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`

	FileURL       string `gorm:"-" json:"file_url,omitempty"`
	CreatedByName string `gorm:"->;column:created_by_name;-:migration" json:"created_by_name,omitempty"`
}

func (ContentItem) TableName() string { return "content_item" }

func (c *ContentItem) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Extracted decodes ExtractedData. It returns nil when nothing has been extracted yet.
func (c *ContentItem) Extracted() (*ExtractedData, error) {
	raw := strings.TrimSpace(string(c.ExtractedData))
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var out ExtractedData
	if err := json.Unmarshal(c.ExtractedData, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExtractedData is written once per item by the extraction pipeline.
type ExtractedData struct {
	RawText            string              `json:"raw_text,omitempty"`
	Sections           []Section           `json:"sections"`
	LearningObjectives []string            `json:"learning_objectives,omitempty"`
	GeneratedQuestions []GeneratedQuestion `json:"generated_questions,omitempty"`
	FileSize           int64               `json:"file_size,omitempty"`
	Transcript         *string             `json:"transcript"`
	DurationSeconds    *float64            `json:"duration_seconds"`
}

type Section struct {
	Title   string   `json:"title"`
	Content []string `json:"content"`
}

type GeneratedQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Correct     string   `json:"correct"`
	Explanation string   `json:"explanation"`
}

// WordCount counts whitespace separated words of the raw text.
func (d *ExtractedData) WordCount() int {
	if d == nil {
		return 0
	}
	return len(strings.Fields(d.RawText))
}
