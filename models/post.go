package models

import "time"

// ThreadBase is the shared shape of every board post. A row with a nil
// ParentID is a top-level post; a row pointing at another row of the same
// table is a reply to it. Replies nest a single level for listing purposes:
// CommentCount counts direct children only.
type ThreadBase struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserID   uint   `gorm:"index;not null" json:"user_id"`
	ParentID *uint  `gorm:"index" json:"parent_id"`
	Title    string `gorm:"size:255" json:"title,omitempty"`
	Content  string `gorm:"type:text;not null" json:"content"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`

	// CommentCount is computed by the listing query; it is never written.
	CommentCount int64 `gorm:"->;-:migration" json:"comment_count"`
}

// PostID returns the row identifier.
func (b *ThreadBase) PostID() uint { return b.ID }

// ParentRef returns the optional parent reference.
func (b *ThreadBase) ParentRef() *uint { return b.ParentID }

// AuthorID returns the owning user id.
func (b *ThreadBase) AuthorID() uint { return b.UserID }

// SetAuthor assigns the owning user id.
func (b *ThreadBase) SetAuthor(id uint) { b.UserID = id }

// Support ticket states.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

// statusFlow lists the allowed forward transitions; closed is terminal.
var statusFlow = map[string][]string{
	StatusOpen:       {StatusInProgress, StatusResolved, StatusClosed},
	StatusInProgress: {StatusResolved, StatusClosed},
	StatusResolved:   {StatusClosed},
	StatusClosed:     {},
}

// ValidStatus reports whether s is a known support ticket state.
func ValidStatus(s string) bool {
	_, ok := statusFlow[s]
	return ok
}

// CanTransition reports whether a support ticket may move from one state to
// the next.
func CanTransition(from, to string) bool {
	for _, next := range statusFlow[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SupportTicket is a customer support question or a staff/author reply.
type SupportTicket struct {
	ThreadBase
	Category string `gorm:"size:50" json:"category,omitempty"`
	Status   string `gorm:"size:20;default:'open';not null" json:"status"`
}

func (SupportTicket) TableName() string { return "customer_support" }

// ParentPost is a parent-forum discussion post or reply.
type ParentPost struct {
	ThreadBase
	Category    string `gorm:"size:50" json:"category,omitempty"`
	IsImportant bool   `gorm:"default:false" json:"is_important"`
}

func (ParentPost) TableName() string { return "parent_forum_posts" }

// ReadingPost is a reading-forum discussion post or reply.
type ReadingPost struct {
	ThreadBase
	BookTitle      string `gorm:"size:255" json:"book_title,omitempty"`
	DiscussionTags string `gorm:"size:255" json:"discussion_tags,omitempty"`
}

func (ReadingPost) TableName() string { return "reading_forum_posts" }
