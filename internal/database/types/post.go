package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// Known payload keys. Everything else is carried in Post.Extra.
const (
	fieldID                 = "id"
	fieldAuthor             = "author"
	fieldPermlink           = "permlink"
	fieldParentAuthor       = "parent_author"
	fieldTitle              = "title"
	fieldBody               = "body"
	fieldCreated            = "created"
	fieldPendingPayoutValue = "pending_payout_value"
)

var knownFields = map[string]struct{}{
	fieldID: {}, fieldAuthor: {}, fieldPermlink: {}, fieldParentAuthor: {},
	fieldTitle: {}, fieldBody: {}, fieldCreated: {}, fieldPendingPayoutValue: {},
}

// Bounds of a created timestamp stored as Unix nanoseconds.
var (
	minCreated = time.Unix(0, math.MinInt64).UTC()
	maxCreated = time.Unix(0, math.MaxInt64).UTC()
)

// createdLayouts lists the timestamp layouts accepted for the created field.
// Hive emits zone-less timestamps which are interpreted as UTC.
var createdLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// Post is a single feed item mirrored from the remote feed.
type Post struct {
	ID                 string         `json:"id"`
	Author             string         `json:"author"`
	Permlink           string         `json:"permlink"`
	ParentAuthor       string         `json:"parent_author"`
	Title              string         `json:"title"`
	Body               string         `json:"body"`
	Created            time.Time      `json:"created"`
	PendingPayoutValue string         `json:"pending_payout_value"`
	Extra              map[string]any `json:"-"`
}

// IsReply reports whether the post answers another post.
func (p *Post) IsReply() bool {
	return p.ParentAuthor != ""
}

// Validate checks the fields required before a post may be stored.
func (p *Post) Validate() error {
	switch {
	case p.ID == "":
		return fmt.Errorf("%w: post is missing an id", ErrInvalidArgument)
	case p.Author == "":
		return fmt.Errorf("%w: post %q is missing an author", ErrInvalidArgument, p.ID)
	case p.Created.IsZero():
		return fmt.Errorf("%w: post %q is missing a created timestamp", ErrInvalidArgument, p.ID)
	case p.Created.Before(minCreated) || p.Created.After(maxCreated):
		return fmt.Errorf("%w: post %q created timestamp %s is out of range", ErrInvalidArgument, p.ID, p.Created)
	}

	return nil
}

// UnmarshalJSON decodes a remote payload, keeping unknown fields in Extra.
func (p *Post) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return err
	}

	post, err := PostFromMap(raw)
	if err != nil {
		return err
	}

	*p = *post

	return nil
}

// PostFromMap normalizes a decoded feed item. The id may be a string or a number;
// when absent it is derived from author and permlink. The map is not modified.
func PostFromMap(raw map[string]any) (*Post, error) {
	post := &Post{
		ID:                 stringField(raw[fieldID]),
		Author:             stringField(raw[fieldAuthor]),
		Permlink:           stringField(raw[fieldPermlink]),
		ParentAuthor:       stringField(raw[fieldParentAuthor]),
		Title:              stringField(raw[fieldTitle]),
		Body:               stringField(raw[fieldBody]),
		PendingPayoutValue: stringField(raw[fieldPendingPayoutValue]),
	}

	if created := stringField(raw[fieldCreated]); created != "" {
		t, err := ParseCreated(created)
		if err != nil {
			return nil, err
		}

		post.Created = t
	}

	if post.ID == "" && post.Author != "" && post.Permlink != "" {
		post.ID = post.Author + "/" + post.Permlink
	}

	for key, value := range raw {
		if _, known := knownFields[key]; known {
			continue
		}

		if post.Extra == nil {
			post.Extra = make(map[string]any)
		}
		post.Extra[key] = value
	}

	return post, nil
}

// MarshalJSON encodes the post in the feed wire format, merging Extra back in.
func (p Post) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+8)
	for k, v := range p.Extra {
		out[k] = v
	}

	out[fieldID] = p.ID
	out[fieldAuthor] = p.Author
	out[fieldPermlink] = p.Permlink
	out[fieldParentAuthor] = p.ParentAuthor
	out[fieldTitle] = p.Title
	out[fieldBody] = p.Body
	out[fieldPendingPayoutValue] = p.PendingPayoutValue

	if !p.Created.IsZero() {
		out[fieldCreated] = p.Created.UTC().Format(time.RFC3339Nano)
	}

	return sonic.Marshal(out)
}

// ParseCreated parses a created timestamp in any of the accepted layouts and returns it in UTC.
func ParseCreated(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: unrecognized created timestamp %q", ErrInvalidArgument, value)
}

// stringField converts a decoded JSON scalar into its string form.
func stringField(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
