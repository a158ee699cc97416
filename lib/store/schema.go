// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

// schema is applied to every pooled connection. All statements are
// idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS contacts (
	contact_id INTEGER PRIMARY KEY AUTOINCREMENT,
	author_id  BLOB NOT NULL UNIQUE,
	active     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS message_groups (
	group_id   BLOB PRIMARY KEY,
	client_id  TEXT NOT NULL,
	descriptor BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS message_groups_client ON message_groups (client_id);

CREATE TABLE IF NOT EXISTS group_metadata (
	group_id BLOB NOT NULL,
	key      TEXT NOT NULL,
	value    BLOB NOT NULL,
	PRIMARY KEY (group_id, key)
);

CREATE TABLE IF NOT EXISTS messages (
	message_id  BLOB PRIMARY KEY,
	group_id    BLOB NOT NULL,
	timestamp   INTEGER NOT NULL,
	local       INTEGER NOT NULL,
	state       INTEGER NOT NULL,
	body        BLOB,
	compression INTEGER NOT NULL,
	raw_length  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS messages_group ON messages (group_id, state);

CREATE TABLE IF NOT EXISTS message_metadata (
	message_id BLOB NOT NULL,
	group_id   BLOB NOT NULL,
	key        TEXT NOT NULL,
	value      BLOB NOT NULL,
	PRIMARY KEY (message_id, key)
);
CREATE INDEX IF NOT EXISTS message_metadata_group ON message_metadata (group_id);

CREATE TABLE IF NOT EXISTS message_dependencies (
	message_id    BLOB NOT NULL,
	group_id      BLOB NOT NULL,
	dependency_id BLOB NOT NULL,
	PRIMARY KEY (message_id, dependency_id)
);
CREATE INDEX IF NOT EXISTS message_dependencies_dependency ON message_dependencies (dependency_id);
`
