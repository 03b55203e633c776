package postgres

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_users_courses_activities",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_link_tables",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CORE RECORDS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    platform_user_id VARCHAR(32) NOT NULL DEFAULT '',
    chat_id VARCHAR(64) UNIQUE,
    name VARCHAR(100) NOT NULL DEFAULT '',
    session TEXT NOT NULL DEFAULT '',
    phone VARCHAR(20) NOT NULL UNIQUE,
    password TEXT NOT NULL,
    is_admin BOOLEAN NOT NULL DEFAULT FALSE,
    is_banned BOOLEAN NOT NULL DEFAULT FALSE,
    usage_count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS courses (
    id BIGSERIAL PRIMARY KEY,
    course_id VARCHAR(32) NOT NULL,
    class_id VARCHAR(32) NOT NULL UNIQUE,
    cpi VARCHAR(32) NOT NULL DEFAULT '',
    name VARCHAR(200) NOT NULL DEFAULT '',
    teacher_name VARCHAR(100) NOT NULL DEFAULT '',
    check_in_count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS activities (
    id BIGSERIAL PRIMARY KEY,
    active_id VARCHAR(32) NOT NULL UNIQUE,
    name VARCHAR(200) NOT NULL DEFAULT '',
    sign_type INTEGER NOT NULL DEFAULT -1,
    type_name VARCHAR(50) NOT NULL DEFAULT '',
    start_time TIMESTAMP WITH TIME ZONE,
    end_time TIMESTAMP WITH TIME ZONE,
    status INTEGER NOT NULL DEFAULT 0,
    user_status INTEGER NOT NULL DEFAULT 0,
    require_photo BOOLEAN NOT NULL DEFAULT FALSE,
    require_location BOOLEAN NOT NULL DEFAULT FALSE,
    location_range INTEGER NOT NULL DEFAULT 0,
    solve TEXT NOT NULL DEFAULT '',
    other_id VARCHAR(16) NOT NULL DEFAULT '',
    group_id INTEGER NOT NULL DEFAULT 0,
    source INTEGER NOT NULL DEFAULT 0,
    is_look INTEGER NOT NULL DEFAULT 0,
    type INTEGER NOT NULL DEFAULT 0,
    release_num INTEGER NOT NULL DEFAULT 0,
    attend_num INTEGER NOT NULL DEFAULT 0,
    active_type INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration001Down = `
DROP TABLE IF EXISTS activities;
DROP TABLE IF EXISTS courses;
DROP TABLE IF EXISTS users;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: LINKS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS user_courses (
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    PRIMARY KEY (user_id, course_id)
);

CREATE TABLE IF NOT EXISTS course_activities (
    course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    activity_id BIGINT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
    PRIMARY KEY (course_id, activity_id)
);

CREATE TABLE IF NOT EXISTS user_activities (
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    activity_id BIGINT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
    PRIMARY KEY (user_id, activity_id)
);

CREATE INDEX IF NOT EXISTS idx_user_courses_course ON user_courses(course_id);
CREATE INDEX IF NOT EXISTS idx_user_activities_activity ON user_activities(activity_id);
`

const migration002Down = `
DROP TABLE IF EXISTS user_activities;
DROP TABLE IF EXISTS course_activities;
DROP TABLE IF EXISTS user_courses;
`
