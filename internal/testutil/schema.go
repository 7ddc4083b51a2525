// Package testutil provides shared fixtures for tests: a small reminders
// schema, deterministic clocks and identifiers, and a test logger.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/roach88/structq/internal/codec"
	"github.com/roach88/structq/internal/ir"
	"github.com/roach88/structq/internal/schema"
)

// Tag is a row of tags(id INTEGER PRIMARY KEY, title TEXT).
type Tag struct {
	ID    int64
	Title string
}

// TagsTable describes Tag rows.
type TagsTable struct {
	*schema.Keyed[Tag, int64]
	ID    schema.Column[Tag, int64]
	Title schema.Column[Tag, string]
}

// Tags is the tags table.
var Tags = func() TagsTable {
	t := schema.NewTable[Tag]("tags")
	id := schema.AddColumn(t, "id", codec.Int64, func(r *Tag) *int64 { return &r.ID }, schema.PrimaryKey())
	title := schema.AddColumn(t, "title", codec.Text, func(r *Tag) *string { return &r.Title })
	return TagsTable{Keyed: schema.WithPrimaryKey(t, id), ID: id, Title: title}
}()

// Timestamps is a group of columns shared by several tables.
type Timestamps struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TimestampsTable describes the Timestamps group.
type TimestampsTable struct {
	*schema.Table[Timestamps]
	CreatedAt schema.Column[Timestamps, time.Time]
	UpdatedAt schema.Column[Timestamps, time.Time]
}

// TimestampColumns is the sub-table flattened into tables with timestamps.
var TimestampColumns = func() TimestampsTable {
	t := schema.NewTable[Timestamps]("timestamps")
	created := schema.AddColumn(t, "created_at", codec.Date, func(r *Timestamps) *time.Time { return &r.CreatedAt })
	updated := schema.AddColumn(t, "updated_at", codec.Date, func(r *Timestamps) *time.Time { return &r.UpdatedAt })
	return TimestampsTable{Table: t, CreatedAt: created, UpdatedAt: updated}
}()

// Location is an optional coordinate pair.
type Location struct {
	Lat float64
	Lng float64
}

// LocationTable describes the Location group.
type LocationTable struct {
	*schema.Table[Location]
	Lat schema.Column[Location, float64]
	Lng schema.Column[Location, float64]
}

// LocationColumns is the sub-table flattened into reminders.
var LocationColumns = func() LocationTable {
	t := schema.NewTable[Location]("location")
	lat := schema.AddColumn(t, "lat", codec.Float64, func(r *Location) *float64 { return &r.Lat })
	lng := schema.AddColumn(t, "lng", codec.Float64, func(r *Location) *float64 { return &r.Lng })
	return LocationTable{Table: t, Lat: lat, Lng: lng}
}()

// RemindersList is a row of remindersLists. Lists are soft-deleted.
type RemindersList struct {
	ID        int64
	Title     string
	Position  int64
	DeletedAt *time.Time
}

// RemindersListsTable describes RemindersList rows.
type RemindersListsTable struct {
	*schema.Keyed[RemindersList, int64]
	ID        schema.Column[RemindersList, int64]
	Title     schema.Column[RemindersList, string]
	Position  schema.Column[RemindersList, int64]
	DeletedAt schema.Column[RemindersList, *time.Time]
}

// RemindersLists is the remindersLists table; its default scope hides
// soft-deleted lists.
var RemindersLists = func() RemindersListsTable {
	t := schema.NewTable[RemindersList]("remindersLists")
	id := schema.AddColumn(t, "id", codec.Int64, func(r *RemindersList) *int64 { return &r.ID }, schema.PrimaryKey())
	title := schema.AddColumn(t, "title", codec.Text, func(r *RemindersList) *string { return &r.Title })
	position := schema.AddColumn(t, "position", codec.Int64, func(r *RemindersList) *int64 { return &r.Position },
		schema.Default(ir.SQL("0")))
	deleted := schema.AddColumn(t, "deletedAt", codec.Optional(codec.Date), func(r *RemindersList) **time.Time { return &r.DeletedAt })
	keyed := schema.WithPrimaryKey(t, id).WithScope(deleted.IsNull())
	return RemindersListsTable{Keyed: keyed, ID: id, Title: title, Position: position, DeletedAt: deleted}
}()

// Priority is a reminder priority stored as text.
type Priority string

const (
	PriorityLow  Priority = "low"
	PriorityHigh Priority = "high"
)

// Reminder is a row of reminders. It embeds the Timestamps group and an
// optional Location group.
type Reminder struct {
	ID              int64
	RemindersListID int64
	Title           string
	Notes           *string
	Priority        Priority
	IsCompleted     bool
	Timestamps      Timestamps
	Location        *Location
}

// RemindersTable describes Reminder rows.
type RemindersTable struct {
	*schema.Keyed[Reminder, int64]
	ID              schema.Column[Reminder, int64]
	RemindersListID schema.Column[Reminder, int64]
	Title           schema.Column[Reminder, string]
	Notes           schema.Column[Reminder, *string]
	Priority        schema.Column[Reminder, Priority]
	IsCompleted     schema.Column[Reminder, bool]
	Timestamps      schema.Group[Reminder, Timestamps]
	CreatedAt       schema.Column[Reminder, time.Time]
	UpdatedAt       schema.Column[Reminder, time.Time]
	Location        schema.Group[Reminder, *Location]
	Lat             schema.Column[Reminder, *float64]
	Lng             schema.Column[Reminder, *float64]
}

// Reminders is the reminders table.
var Reminders = func() RemindersTable {
	t := schema.NewTable[Reminder]("reminders")
	tbl := RemindersTable{}
	tbl.ID = schema.AddColumn(t, "id", codec.Int64, func(r *Reminder) *int64 { return &r.ID }, schema.PrimaryKey())
	tbl.RemindersListID = schema.AddColumn(t, "remindersListID", codec.Int64, func(r *Reminder) *int64 { return &r.RemindersListID })
	tbl.Title = schema.AddColumn(t, "title", codec.Text, func(r *Reminder) *string { return &r.Title })
	tbl.Notes = schema.AddColumn(t, "notes", codec.Optional(codec.Text), func(r *Reminder) **string { return &r.Notes })
	tbl.Priority = schema.AddColumn(t, "priority", codec.String[Priority](), func(r *Reminder) *Priority { return &r.Priority },
		schema.Default(ir.SQL("'low'")))
	tbl.IsCompleted = schema.AddColumn(t, "isCompleted", codec.Bool, func(r *Reminder) *bool { return &r.IsCompleted },
		schema.Default(ir.SQL("0")))
	tbl.Timestamps = schema.AddGroup(t, TimestampColumns.Table, "", func(r *Reminder) *Timestamps { return &r.Timestamps })
	tbl.CreatedAt = schema.GroupColumn(tbl.Timestamps, TimestampColumns.CreatedAt)
	tbl.UpdatedAt = schema.GroupColumn(tbl.Timestamps, TimestampColumns.UpdatedAt)
	tbl.Location = schema.AddOptionalGroup(t, LocationColumns.Table, "location_", func(r *Reminder) **Location { return &r.Location })
	tbl.Lat = schema.OptionalGroupColumn(tbl.Location, LocationColumns.Lat)
	tbl.Lng = schema.OptionalGroupColumn(tbl.Location, LocationColumns.Lng)
	tbl.Keyed = schema.WithPrimaryKey(t, tbl.ID)
	return tbl
}()

// Item is a row of items, with one column per binding kind.
type Item struct {
	ID      uuid.UUID
	Payload []byte
	Ratio   float64
	At      time.Time
	Counter uint64
	Labels  map[string]string
	Flag    bool
	Serial  int64
}

// ItemsTable describes Item rows.
type ItemsTable struct {
	*schema.Keyed[Item, uuid.UUID]
	ID      schema.Column[Item, uuid.UUID]
	Payload schema.Column[Item, []byte]
	Ratio   schema.Column[Item, float64]
	At      schema.Column[Item, time.Time]
	Counter schema.Column[Item, uint64]
	Labels  schema.Column[Item, map[string]string]
	Flag    schema.Column[Item, bool]
	Serial  schema.Column[Item, int64]
}

// Items is the items table. Its serial column is generated by the database.
var Items = func() ItemsTable {
	t := schema.NewTable[Item]("items")
	tbl := ItemsTable{}
	tbl.ID = schema.AddColumn(t, "id", codec.UUID, func(r *Item) *uuid.UUID { return &r.ID }, schema.PrimaryKey())
	tbl.Payload = schema.AddColumn(t, "payload", codec.Blob, func(r *Item) *[]byte { return &r.Payload })
	tbl.Ratio = schema.AddColumn(t, "ratio", codec.Float64, func(r *Item) *float64 { return &r.Ratio })
	tbl.At = schema.AddColumn(t, "at", codec.Date, func(r *Item) *time.Time { return &r.At })
	tbl.Counter = schema.AddColumn(t, "counter", codec.Uint64, func(r *Item) *uint64 { return &r.Counter })
	tbl.Labels = schema.AddColumn(t, "labels", codec.JSON[map[string]string](), func(r *Item) *map[string]string { return &r.Labels })
	tbl.Flag = schema.AddColumn(t, "flag", codec.Bool, func(r *Item) *bool { return &r.Flag })
	tbl.Serial = schema.AddColumn(t, "serial", codec.Int64, func(r *Item) *int64 { return &r.Serial }, schema.Generated())
	tbl.Keyed = schema.WithPrimaryKey(t, tbl.ID)
	return tbl
}()
