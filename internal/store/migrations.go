package store

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id                TEXT PRIMARY KEY,
    handle            TEXT NOT NULL UNIQUE,
    display_name      TEXT NOT NULL DEFAULT '',
    profile_image_url TEXT NOT NULL DEFAULT '',
    added_by          TEXT NOT NULL DEFAULT '',
    created_at        DATETIME NOT NULL,
    last_fetched_at   DATETIME
);

CREATE INDEX IF NOT EXISTS idx_accounts_created_at ON accounts(created_at);

CREATE TABLE IF NOT EXISTS tweets (
    id                 TEXT PRIMARY KEY,
    external_id        TEXT NOT NULL UNIQUE,
    account_id         TEXT NOT NULL,
    content            TEXT NOT NULL DEFAULT '',
    translated_content TEXT NOT NULL DEFAULT '',
    summary            TEXT NOT NULL DEFAULT '',
    url                TEXT NOT NULL DEFAULT '',
    created_at         DATETIME NOT NULL,
    fetched_at         DATETIME NOT NULL,
    like_count         INTEGER NOT NULL DEFAULT 0,
    retweet_count      INTEGER NOT NULL DEFAULT 0,
    reply_count        INTEGER NOT NULL DEFAULT 0,
    view_count         INTEGER NOT NULL DEFAULT 0,
    media              TEXT NOT NULL DEFAULT '[]',
    is_thread          BOOLEAN NOT NULL DEFAULT 0,
    thread_id          TEXT NOT NULL DEFAULT '',
    thread_position    INTEGER NOT NULL DEFAULT 0,
    sentiment          TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_tweets_account ON tweets(account_id);
CREATE INDEX IF NOT EXISTS idx_tweets_created_at ON tweets(created_at);

CREATE TABLE IF NOT EXISTS tags (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL UNIQUE,
    color       TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS account_tags (
    account_id  TEXT NOT NULL REFERENCES accounts(id),
    tag_id      TEXT NOT NULL REFERENCES tags(id),
    assigned_at DATETIME NOT NULL,
    PRIMARY KEY (account_id, tag_id)
);

CREATE TABLE IF NOT EXISTS saved_tweets (
    tweet_id      TEXT PRIMARY KEY REFERENCES tweets(id),
    category      TEXT NOT NULL DEFAULT '',
    notes         TEXT NOT NULL DEFAULT '',
    is_read_later BOOLEAN NOT NULL DEFAULT 0,
    saved_at      DATETIME NOT NULL
);
`
