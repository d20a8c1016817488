package model

// InjectType is the kind of response an inject expects.
type InjectType string

const (
	InjectTypeNone InjectType = "none"
	InjectTypeText InjectType = "text"
	InjectTypeFile InjectType = "file"
	InjectTypeFlag InjectType = "flag"
)

func (t InjectType) Valid() bool {
	switch t {
	case InjectTypeNone, InjectTypeText, InjectTypeFile, InjectTypeFlag:
		return true
	}
	return false
}

// AcceptsSubmissions is false for informational injects.
func (t InjectType) AcceptsSubmissions() bool {
	return t.Valid() && t != InjectTypeNone
}

// Normalize maps unknown types to InjectTypeNone.
func (t InjectType) Normalize() InjectType {
	if !t.Valid() {
		return InjectTypeNone
	}
	return t
}

type Inject struct {
	ID        int        `db:"id"         json:"id"`
	Title     string     `db:"title"      json:"title"`
	Content   string     `db:"content"    json:"content"`
	Sequence  int        `db:"sequence"   json:"sequence"`
	Type      InjectType `db:"type"       json:"type"`
	MaxPoints int        `db:"max_points" json:"max_points"`
}
