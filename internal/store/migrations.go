package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	display_name  TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'regular' CHECK(role IN ('regular', 'manager')),
	notify_in_app INTEGER NOT NULL DEFAULT 1 CHECK(notify_in_app IN (0, 1)),
	notify_email  INTEGER NOT NULL DEFAULT 1 CHECK(notify_email IN (0, 1)),
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'To Do' CHECK(status IN ('To Do', 'In Progress', 'Done')),
	priority    TEXT NOT NULL DEFAULT 'Medium' CHECK(priority IN ('Low', 'Medium', 'High')),
	due_date    DATETIME,
	creator_id  TEXT NOT NULL REFERENCES users(id),
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS task_tags (
	task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	tag     TEXT NOT NULL,
	PRIMARY KEY (task_id, tag)
);

CREATE TABLE IF NOT EXISTS assignments (
	task_id     TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	user_id     TEXT NOT NULL REFERENCES users(id),
	assigned_at DATETIME NOT NULL,
	PRIMARY KEY (task_id, user_id)
);

CREATE TABLE IF NOT EXISTS comments (
	id                TEXT PRIMARY KEY,
	task_id           TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	author_id         TEXT NOT NULL REFERENCES users(id),
	body              TEXT NOT NULL,
	parent_comment_id TEXT REFERENCES comments(id) ON DELETE SET NULL,
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL
);

-- reference_id is deliberately not a foreign key: notifications outlive
-- the task or comment they point at.
CREATE TABLE IF NOT EXISTS notifications (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL REFERENCES users(id),
	type         TEXT NOT NULL,
	reference_id TEXT NOT NULL,
	message      TEXT NOT NULL,
	is_read      INTEGER NOT NULL DEFAULT 0 CHECK(is_read IN (0, 1)),
	created_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS reminders (
	id         TEXT PRIMARY KEY,
	task_id    TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	remind_at  DATETIME NOT NULL,
	preset     TEXT NOT NULL,
	fired      INTEGER NOT NULL DEFAULT 0 CHECK(fired IN (0, 1)),
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_priority ON tasks(priority);
CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks(due_date);
CREATE INDEX IF NOT EXISTS idx_tasks_creator ON tasks(creator_id);
CREATE INDEX IF NOT EXISTS idx_assignments_user ON assignments(user_id);
CREATE INDEX IF NOT EXISTS idx_comments_task ON comments(task_id);
CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id);
CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(is_read);
CREATE INDEX IF NOT EXISTS idx_reminders_task ON reminders(task_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_comments_parent ON comments(parent_comment_id);
CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(fired, remind_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
