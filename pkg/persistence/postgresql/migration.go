package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE submissions (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				shape VARCHAR(20) NOT NULL DEFAULT '',
				stage VARCHAR(20) NOT NULL CHECK (stage IN ('pending', 'reviewing', 'report', 'submitted')),
				width DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (width >= 0),
				depth DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (depth >= 0),
				height DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (height >= 0),
				quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
				-- kept as text: the dashboard must tolerate deadlines that do not parse
				deadline VARCHAR(64) NOT NULL DEFAULT '',
				company VARCHAR(255) NOT NULL DEFAULT '',
				contact_name VARCHAR(255) NOT NULL DEFAULT '',
				contact_email VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_submissions_stage ON submissions(stage);
			CREATE INDEX idx_submissions_created_at ON submissions(created_at);
		`,
		2: `
			-- Report and send-to-client bookkeeping
			ALTER TABLE submissions
				ADD COLUMN notes TEXT NOT NULL DEFAULT '',
				ADD COLUMN recommendation TEXT NOT NULL DEFAULT '',
				ADD COLUMN stl_url TEXT NOT NULL DEFAULT '',
				ADD COLUMN sent_to_client VARCHAR(255) NOT NULL DEFAULT '',
				ADD COLUMN sent_message TEXT NOT NULL DEFAULT '',
				ADD COLUMN sent_date TIMESTAMP WITH TIME ZONE;

			CREATE TABLE messages (
				id VARCHAR(255) PRIMARY KEY,
				submission_id VARCHAR(255) NOT NULL REFERENCES submissions(id) ON DELETE CASCADE,
				body TEXT NOT NULL,
				direction VARCHAR(20) NOT NULL CHECK (direction IN ('outbound', 'inbound')),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_messages_submission_id ON messages(submission_id);
			CREATE INDEX idx_messages_created_at ON messages(created_at);
		`,
	}
}
