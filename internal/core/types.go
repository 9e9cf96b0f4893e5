package core

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/qartha/idfportal/internal/devicecsv"
	"github.com/qartha/idfportal/internal/table"
)

// MediaItem is one uploaded or linked file attached to an IDF.
type MediaItem struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
	Kind string `json:"kind,omitempty"`
}

// UnmarshalJSON accepts a bare URL string or an object.
func (m *MediaItem) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var url string
		if err := json.Unmarshal(data, &url); err != nil {
			return err
		}
		*m = MediaItem{URL: url}
		return nil
	}
	type plain MediaItem
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = MediaItem(p)
	return nil
}

// MediaList is an ordered list of media items. On input it accepts null, a
// single item, or an array; it is always emitted as an array.
type MediaList []MediaItem

func (l *MediaList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*l = MediaList{}
		return nil
	case data[0] == '[':
		var items []MediaItem
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = compactMedia(items)
		return nil
	default:
		var item MediaItem
		if err := json.Unmarshal(data, &item); err != nil {
			return err
		}
		*l = compactMedia([]MediaItem{item})
		return nil
	}
}

func (l MediaList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]MediaItem(l))
}

// compactMedia drops entries with an empty URL.
func compactMedia(items []MediaItem) MediaList {
	out := make(MediaList, 0, len(items))
	for _, it := range items {
		it.URL = strings.TrimSpace(it.URL)
		if it.URL == "" {
			continue
		}
		out = append(out, it)
	}
	return out
}

// IDFKey addresses one IDF record.
type IDFKey struct {
	Cluster string
	Project string
	Code    string
}

func (k IDFKey) String() string {
	return k.Cluster + "/" + k.Project + "/" + k.Code
}

// IDF is a wiring-closet record. Table is nil when no table has been
// created; Health is derived and never stored.
type IDF struct {
	ID          int64         `json:"id"`
	Cluster     string        `json:"cluster"`
	Project     string        `json:"project"`
	Code        string        `json:"code"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Site        string        `json:"site"`
	Room        string        `json:"room"`
	Images      MediaList     `json:"images"`
	Documents   MediaList     `json:"documents"`
	Diagrams    MediaList     `json:"diagrams"`
	DFO         MediaList     `json:"dfo"`
	Location    MediaList     `json:"location"`
	Logo        *MediaItem    `json:"logo"`
	Table       *table.Table  `json:"table,omitempty"`
	Health      *table.Health `json:"health,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Key returns the record's address.
func (i *IDF) Key() IDFKey {
	return IDFKey{Cluster: i.Cluster, Project: i.Project, Code: i.Code}
}

// IDFIndex is the list view of an IDF.
type IDFIndex struct {
	Code   string        `json:"code"`
	Title  string        `json:"title"`
	Site   string        `json:"site"`
	Room   string        `json:"room"`
	Health *table.Health `json:"health,omitempty"`
}

// IDFUpsert is the client payload for create and update. Gallery is an
// older name for Images and is merged into it.
type IDFUpsert struct {
	Code        string       `json:"code"`
	Title       string       `json:"title" validate:"required,max=255"`
	Description string       `json:"description" validate:"max=10000"`
	Site        string       `json:"site" validate:"max=255"`
	Room        string       `json:"room" validate:"max=255"`
	Images      MediaList    `json:"images"`
	Gallery     MediaList    `json:"gallery"`
	Documents   MediaList    `json:"documents"`
	Diagrams    MediaList    `json:"diagrams"`
	DFO         MediaList    `json:"dfo"`
	Location    MediaList    `json:"location"`
	Logo        *MediaItem   `json:"logo"`
	Table       *table.Table `json:"table"`
}

var codePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,49}$`)

// ValidCode reports whether code is usable as an IDF code and path segment.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// ListOptions filters and pages ListIDFs.
type ListOptions struct {
	Query         string
	Limit         int
	Skip          int
	IncludeHealth bool
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

func (o ListOptions) normalize() (ListOptions, error) {
	if o.Limit == 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit < 1 || o.Limit > MaxListLimit {
		return o, invalidInput("limit", "must be between 1 and %d", MaxListLimit)
	}
	if o.Skip < 0 {
		return o, invalidInput("skip", "must not be negative")
	}
	o.Query = strings.TrimSpace(o.Query)
	return o, nil
}

// Device is one inventory entry belonging to an IDF.
type Device struct {
	ID        int64     `json:"id"`
	Cluster   string    `json:"cluster"`
	Project   string    `json:"project"`
	IDFCode   string    `json:"idf_code"`
	Name      string    `json:"name"`
	Model     string    `json:"model"`
	Serial    string    `json:"serial"`
	Rack      string    `json:"rack"`
	Site      string    `json:"site"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// NewDevice is the client payload for creating a device.
type NewDevice struct {
	IDFCode string `json:"idf_code" validate:"required,max=50"`
	Name    string `json:"name" validate:"required,max=255"`
	Model   string `json:"model" validate:"max=255"`
	Serial  string `json:"serial" validate:"max=255"`
	Rack    string `json:"rack" validate:"max=255"`
	Site    string `json:"site" validate:"max=255"`
	Notes   string `json:"notes" validate:"max=10000"`
}

// DeviceImportResult summarizes a CSV import.
type DeviceImportResult struct {
	Imported int                  `json:"imported"`
	Failed   []devicecsv.RowError `json:"failed"`
	Skipped  int                  `json:"skipped"`
	Message  string               `json:"message"`
}

// TableView is returned by every table operation.
type TableView struct {
	Table  table.Table  `json:"table"`
	Health table.Health `json:"health"`
}

// Role is a user's permission level.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleVisitor Role = "visitor"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleVisitor
}

// User is a portal account.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name"`
	Role         Role       `json:"role"`
	Active       bool       `json:"is_active"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// NewUser is the input for creating a user.
type NewUser struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	FullName string `json:"full_name" validate:"max=255"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"required,oneof=admin visitor"`
}

// Store persists IDFs, devices and users.
//
// MutateIDF loads the record under a row lock, calls fn, and persists the
// record fn leaves behind. If fn returns an error nothing is written.
type Store interface {
	ListIDFs(ctx context.Context, cluster, project string, opts ListOptions) ([]IDF, error)
	GetIDF(ctx context.Context, key IDFKey) (*IDF, error)
	CreateIDF(ctx context.Context, idf *IDF) error
	UpdateIDF(ctx context.Context, idf *IDF) error
	DeleteIDF(ctx context.Context, key IDFKey) error
	MutateIDF(ctx context.Context, key IDFKey, fn func(*IDF) error) (*IDF, error)

	ReplaceDevices(ctx context.Context, key IDFKey, devices []Device) error
	InsertDevices(ctx context.Context, devices []Device) ([]Device, error)
	ListDevices(ctx context.Context, key IDFKey) ([]Device, error)

	CreateUser(ctx context.Context, u *User) error
	UserByEmail(ctx context.Context, email string) (*User, error)
	UserByID(ctx context.Context, id int64) (*User, error)
	RecordLogin(ctx context.Context, id int64, at time.Time) error

	Ping(ctx context.Context) error
}

func (k IDFKey) validate() error {
	if !ValidCode(k.Code) {
		return invalidInput("code", "must be 1-50 letters, digits, '.', '_' or '-' and start with a letter or digit")
	}
	return nil
}
