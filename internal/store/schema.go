package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	kvColumns = []*schema.Column{
		{Name: "key", Type: field.TypeString, Unique: true},
		{Name: "value", Type: field.TypeString},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// KVTable holds client-side preferences and credentials.
	KVTable = &schema.Table{
		Name:       "kv_entries",
		Columns:    kvColumns,
		PrimaryKey: []*schema.Column{kvColumns[0]},
	}

	llmEventColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Nullable: true},
		{Name: "request_body", Type: field.TypeString, Nullable: true},
		{Name: "response_body", Type: field.TypeString, Nullable: true},
	}
	// LLMEventTable records every LLM call made by the local backend.
	LLMEventTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    llmEventColumns,
		PrimaryKey: []*schema.Column{llmEventColumns[0]},
	}

	userColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "username", Type: field.TypeString, Unique: true},
		{Name: "email", Type: field.TypeString, Unique: true, Nullable: true},
		{Name: "password_hash", Type: field.TypeString},
		{Name: "role", Type: field.TypeString, Default: "general_user"},
		{Name: "language", Type: field.TypeString, Default: "en"},
		{Name: "first_name", Type: field.TypeString, Nullable: true},
		{Name: "last_name", Type: field.TypeString, Nullable: true},
		{Name: "is_admin", Type: field.TypeBool, Default: false},
		{Name: "created_at", Type: field.TypeTime},
	}
	// UserTable holds accounts of the local backend.
	UserTable = &schema.Table{
		Name:       "users",
		Columns:    userColumns,
		PrimaryKey: []*schema.Column{userColumns[0]},
	}

	tokenColumns = []*schema.Column{
		{Name: "token", Type: field.TypeString, Unique: true},
		{Name: "user_id", Type: field.TypeInt},
		{Name: "admin", Type: field.TypeBool, Default: false},
		{Name: "expires_at", Type: field.TypeTime},
	}
	// TokenTable maps opaque bearer tokens to users.
	TokenTable = &schema.Table{
		Name:       "auth_tokens",
		Columns:    tokenColumns,
		PrimaryKey: []*schema.Column{tokenColumns[0]},
		Indexes: []*schema.Index{
			{Name: "authtoken_user_id", Columns: []*schema.Column{tokenColumns[1]}},
		},
	}

	historyColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeInt},
		{Name: "query", Type: field.TypeString},
		{Name: "term", Type: field.TypeString},
		{Name: "level", Type: field.TypeString},
		{Name: "language", Type: field.TypeString},
		{Name: "summary", Type: field.TypeString},
		{Name: "feedback", Type: field.TypeInt, Default: 0},
		{Name: "created_at", Type: field.TypeTime},
	}
	// HistoryTable holds searches made by signed-in users.
	HistoryTable = &schema.Table{
		Name:       "search_history",
		Columns:    historyColumns,
		PrimaryKey: []*schema.Column{historyColumns[0]},
		Indexes: []*schema.Index{
			{Name: "searchhistory_user_id", Columns: []*schema.Column{historyColumns[1]}},
			{Name: "searchhistory_term", Columns: []*schema.Column{historyColumns[3]}},
		},
	}

	quizResultColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeInt},
		{Name: "score", Type: field.TypeInt},
		{Name: "total_questions", Type: field.TypeInt},
		{Name: "difficulty", Type: field.TypeString},
		{Name: "topic", Type: field.TypeString, Nullable: true},
		{Name: "time_taken", Type: field.TypeInt},
		{Name: "created_at", Type: field.TypeTime},
	}
	// QuizResultTable holds submitted quiz attempts.
	QuizResultTable = &schema.Table{
		Name:       "quiz_results",
		Columns:    quizResultColumns,
		PrimaryKey: []*schema.Column{quizResultColumns[0]},
		Indexes: []*schema.Index{
			{Name: "quizresult_difficulty", Columns: []*schema.Column{quizResultColumns[4]}},
		},
	}

	reviewColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeInt, Unique: true},
		{Name: "rating", Type: field.TypeInt},
		{Name: "comment", Type: field.TypeString, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	// ReviewTable holds one review of the service per user.
	ReviewTable = &schema.Table{
		Name:       "reviews",
		Columns:    reviewColumns,
		PrimaryKey: []*schema.Column{reviewColumns[0]},
	}

	// Tables lists every table migrated by Open.
	Tables = []*schema.Table{
		KVTable,
		LLMEventTable,
		UserTable,
		TokenTable,
		HistoryTable,
		QuizResultTable,
		ReviewTable,
	}
)
