package postgres

// Schema creates every table the PostgreSQL stores use.
const Schema = `
CREATE TABLE IF NOT EXISTS verification_records (
	id                       UUID PRIMARY KEY,
	user_id                  UUID NOT NULL,
	persona                  TEXT NOT NULL DEFAULT '',
	status                   TEXT NOT NULL,
	declarations_and_consent BOOLEAN NOT NULL DEFAULT FALSE,
	full_name                TEXT NOT NULL DEFAULT '',
	email                    TEXT NOT NULL DEFAULT '',
	school_name              TEXT NOT NULL DEFAULT '',
	submitted_at             TIMESTAMPTZ,
	pre_approved_at          TIMESTAMPTZ,
	pre_approved_by          UUID,
	verified_at              TIMESTAMPTZ,
	verified_by              UUID,
	reviewed_at              TIMESTAMPTZ,
	reviewed_by              UUID,
	reviewer_notes           TEXT NOT NULL DEFAULT '',
	denial_reason            TEXT,
	cooldown_until           TIMESTAMPTZ,
	resubmission_count       INTEGER NOT NULL DEFAULT 0 CHECK (resubmission_count >= 0),
	previous_id              UUID REFERENCES verification_records (id),
	version                  INTEGER NOT NULL DEFAULT 1,
	created_at               TIMESTAMPTZ NOT NULL,
	updated_at               TIMESTAMPTZ NOT NULL,
	CHECK ((status = 'denied') = (denial_reason IS NOT NULL AND cooldown_until IS NOT NULL)),
	CHECK ((status = 'verified') = (verified_at IS NOT NULL AND verified_by IS NOT NULL))
);

CREATE UNIQUE INDEX IF NOT EXISTS verification_records_one_active
	ON verification_records (user_id)
	WHERE status IN ('unverified', 'pending', 'pre-approved');

CREATE INDEX IF NOT EXISTS verification_records_user_created
	ON verification_records (user_id, created_at DESC);

CREATE INDEX IF NOT EXISTS verification_records_queue
	ON verification_records ((COALESCE(submitted_at, created_at)) DESC, id);

CREATE TABLE IF NOT EXISTS verification_profiles (
	id              UUID PRIMARY KEY,
	verification_id UUID NOT NULL REFERENCES verification_records (id),
	user_id         UUID NOT NULL,
	persona         TEXT NOT NULL,
	data            JSONB NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS verification_profiles_latest
	ON verification_profiles (verification_id, created_at DESC);

CREATE TABLE IF NOT EXISTS verification_documents (
	id              UUID PRIMARY KEY,
	verification_id UUID NOT NULL REFERENCES verification_records (id),
	user_id         UUID NOT NULL,
	document_type   TEXT NOT NULL,
	file_name       TEXT NOT NULL,
	file_url        TEXT NOT NULL,
	content_type    TEXT NOT NULL DEFAULT '',
	size_bytes      BIGINT NOT NULL,
	uploaded_at     TIMESTAMPTZ NOT NULL,
	is_verified     BOOLEAN NOT NULL DEFAULT FALSE,
	verified_by     UUID,
	verified_at     TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS verification_documents_record
	ON verification_documents (verification_id, uploaded_at);

CREATE INDEX IF NOT EXISTS verification_documents_file_url
	ON verification_documents (user_id, file_url);

CREATE TABLE IF NOT EXISTS audit_events (
	id         UUID PRIMARY KEY,
	category   TEXT NOT NULL,
	timestamp  TIMESTAMPTZ NOT NULL,
	user_id    UUID,
	subject    TEXT NOT NULL DEFAULT '',
	action     TEXT NOT NULL,
	persona    TEXT NOT NULL DEFAULT '',
	decision   TEXT NOT NULL DEFAULT '',
	reason     TEXT NOT NULL DEFAULT '',
	actor_id   TEXT NOT NULL DEFAULT '',
	request_id TEXT NOT NULL DEFAULT '',
	client_ip  TEXT NOT NULL DEFAULT '',
	device     TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS audit_events_user_time ON audit_events (user_id, timestamp);
`
