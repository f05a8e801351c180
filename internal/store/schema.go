package store

// Schema v1 - run history and per-run results
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- One row per analysis run
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  started_at DATETIME NOT NULL,
  finished_at DATETIME,
  status TEXT NOT NULL DEFAULT 'running',
  error TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL DEFAULT '',
  zero_reviews TEXT NOT NULL DEFAULT '',
  trend_from INTEGER NOT NULL DEFAULT 0,
  trend_to INTEGER NOT NULL DEFAULT 0,
  listings INTEGER NOT NULL DEFAULT 0,
  merged INTEGER NOT NULL DEFAULT 0,
  games INTEGER NOT NULL DEFAULT 0,
  excluded INTEGER NOT NULL DEFAULT 0,
  report_path TEXT NOT NULL DEFAULT ''
);

-- Ranked developers and publishers
CREATE TABLE IF NOT EXISTS company_scores (
  run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  role TEXT NOT NULL,
  rank INTEGER NOT NULL,
  name TEXT NOT NULL,
  game_num INTEGER NOT NULL,
  avg_price REAL NOT NULL,
  avg_total_ratings REAL NOT NULL,
  avg_rating REAL NOT NULL,
  sum_owners INTEGER NOT NULL,
  score REAL NOT NULL,
  top_titles TEXT NOT NULL DEFAULT '[]',
  genre_counts TEXT NOT NULL DEFAULT '{}',
  PRIMARY KEY (run_id, role, rank)
);

-- Tags with the largest prevalence swing
CREATE TABLE IF NOT EXISTS tag_trends (
  run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  rank INTEGER NOT NULL,
  tag TEXT NOT NULL,
  swing REAL NOT NULL,
  min_ratio REAL NOT NULL,
  min_year INTEGER NOT NULL,
  max_ratio REAL NOT NULL,
  max_year INTEGER NOT NULL,
  PRIMARY KEY (run_id, rank)
);

-- Recommended graphics card buckets
CREATE TABLE IF NOT EXISTS gpu_tiers (
  run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  label TEXT NOT NULL,
  owners INTEGER NOT NULL,
  major INTEGER NOT NULL,
  minor INTEGER NOT NULL,
  grp INTEGER NOT NULL,
  legacy INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (run_id, position)
);
`

// Schema v2 - lookup indexes
const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status, started_at);
CREATE INDEX IF NOT EXISTS idx_company_scores_name ON company_scores(role, name);
CREATE INDEX IF NOT EXISTS idx_tag_trends_tag ON tag_trends(tag);
`
