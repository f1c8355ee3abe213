// Package store wraps the record store with typed repositories for the four
// collaboration tables and the user directory. Each repository is a thin
// translation layer; consistency across tables is the thread service's job.
package store

// Table names as provisioned in the record store.
const (
	TableComments  = "comment_c"
	TableReplies   = "reply_c"
	TableReactions = "reaction_c"
	TableMentions  = "user_mention_c"
	TableUsers     = "app_user_c"
)

// Field names, shared across repositories.
const (
	fieldName         = "Name"
	fieldDealID       = "deal_id_c"
	fieldUserID       = "user_id_c"
	fieldCommentText  = "comment_text_c"
	fieldCommentID    = "comment_id_c"
	fieldReplyText    = "reply_text_c"
	fieldReplyID      = "reply_id_c"
	fieldReactionType = "reaction_type_c"
	fieldUsername     = "username_c"
	fieldFirstName    = "first_name_c"
	fieldLastName     = "last_name_c"
	fieldEmail        = "email_c"
)
