package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE automations (
				id VARCHAR(255) PRIMARY KEY,
				channel_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				trigger_kind VARCHAR(50) NOT NULL,
				trigger_keywords TEXT[] NOT NULL DEFAULT '{}',
				status VARCHAR(50) NOT NULL CHECK (status IN ('active', 'inactive')),
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				execution_count BIGINT NOT NULL DEFAULT 0,
				last_executed_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_automations_lookup ON automations(channel_id, trigger_kind, status);

			CREATE TABLE executions (
				id VARCHAR(255) PRIMARY KEY,
				automation_id VARCHAR(255) NOT NULL REFERENCES automations(id),
				contact_id VARCHAR(255) NOT NULL,
				conversation_id VARCHAR(255),
				channel_id VARCHAR(255),
				status VARCHAR(50) NOT NULL CHECK (status IN ('running', 'paused', 'completed', 'failed')),
				variables JSONB DEFAULT '{}',
				trigger_data JSONB DEFAULT '{}',
				result TEXT,
				current_node_id VARCHAR(255),
				resume_at TIMESTAMP WITH TIME ZONE,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_executions_automation_id ON executions(automation_id);
			CREATE INDEX idx_executions_status ON executions(status);
			CREATE INDEX idx_executions_conversation_id ON executions(conversation_id);

			CREATE TABLE execution_logs (
				id VARCHAR(255) PRIMARY KEY,
				execution_id VARCHAR(255) NOT NULL REFERENCES executions(id) ON DELETE CASCADE,
				node_id VARCHAR(255) NOT NULL,
				node_type VARCHAR(50) NOT NULL,
				status VARCHAR(50) NOT NULL,
				input_data JSONB DEFAULT '{}',
				output_data JSONB DEFAULT '{}',
				error_message TEXT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_execution_logs_execution_id ON execution_logs(execution_id, created_at);
		`,
		2: `
			-- One outstanding wait per conversation.
			CREATE TABLE pending_waits (
				conversation_id VARCHAR(255) PRIMARY KEY,
				id VARCHAR(255) NOT NULL,
				execution_id VARCHAR(255) NOT NULL,
				automation_id VARCHAR(255) NOT NULL,
				node_id VARCHAR(255) NOT NULL,
				contact_id VARCHAR(255),
				channel_id VARCHAR(255),
				variables JSONB DEFAULT '{}',
				save_as VARCHAR(255),
				buttons JSONB DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_pending_waits_execution_id ON pending_waits(execution_id);
			CREATE INDEX idx_pending_waits_created_at ON pending_waits(created_at);
		`,
		3: `
			CREATE TABLE contacts (
				id VARCHAR(255) PRIMARY KEY,
				channel_id VARCHAR(255) NOT NULL,
				name VARCHAR(255),
				phone VARCHAR(64) NOT NULL
			);

			CREATE TABLE conversations (
				id VARCHAR(255) PRIMARY KEY,
				channel_id VARCHAR(255) NOT NULL,
				contact_id VARCHAR(255) NOT NULL,
				assigned_to VARCHAR(255),
				status VARCHAR(50) NOT NULL DEFAULT 'open',
				last_message_at TIMESTAMP WITH TIME ZONE,
				last_message_text TEXT
			);

			CREATE TABLE templates (
				id VARCHAR(255) PRIMARY KEY,
				channel_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				language VARCHAR(16),
				body TEXT
			);

			CREATE INDEX idx_templates_channel_id ON templates(channel_id);
		`,
	}
}
