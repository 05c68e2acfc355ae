package store

const schema = `
CREATE TABLE IF NOT EXISTS posts (
    post_id            TEXT PRIMARY KEY,
    created_at         DATETIME NOT NULL,
    content            TEXT NOT NULL,
    author_id          TEXT NOT NULL,
    author_handle      TEXT NOT NULL,
    author_name        TEXT NOT NULL DEFAULT '',
    replies            INTEGER NOT NULL DEFAULT 0,
    reposts            INTEGER NOT NULL DEFAULT 0,
    favorites          INTEGER NOT NULL DEFAULT 0,
    is_repost          BOOLEAN NOT NULL DEFAULT 0,
    language           TEXT NOT NULL DEFAULT 'en',
    origin             TEXT NOT NULL DEFAULT '',
    sentiment_score    REAL,
    sentiment_category TEXT,
    brand              TEXT NOT NULL DEFAULT '',
    collected_at       DATETIME NOT NULL,
    processed_at       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);
CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author_id);
CREATE INDEX IF NOT EXISTS idx_posts_brand ON posts(brand);

CREATE TABLE IF NOT EXISTS post_tags (
    id      INTEGER PRIMARY KEY AUTOINCREMENT,
    post_id TEXT NOT NULL REFERENCES posts(post_id),
    tag     TEXT NOT NULL,
    UNIQUE(post_id, tag)
);

CREATE INDEX IF NOT EXISTS idx_post_tags_tag ON post_tags(tag);

CREATE TABLE IF NOT EXISTS post_mentions (
    id      INTEGER PRIMARY KEY AUTOINCREMENT,
    post_id TEXT NOT NULL REFERENCES posts(post_id),
    handle  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_post_mentions_handle ON post_mentions(handle);

CREATE TABLE IF NOT EXISTS brands (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    name       TEXT UNIQUE NOT NULL,
    category   TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL
);
`
