package store

// createResultsTable holds the eleven retained result columns plus an
// identity column. timestamp and runId are never persisted.
const createResultsTable = `
CREATE TABLE IF NOT EXISTS experiment_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	areaLength INTEGER,
	areaWidth INTEGER,
	areaHeight INTEGER,
	numNodes INTEGER,
	linkQuality TEXT,
	keyAgreementDelay REAL,
	totalSent INTEGER,
	totalReceived INTEGER,
	overheadRatio REAL,
	successRate REAL,
	avgUniqueContributions REAL
)`

const insertResult = `
INSERT INTO experiment_results (
	areaLength, areaWidth, areaHeight, numNodes, linkQuality,
	keyAgreementDelay, totalSent, totalReceived,
	overheadRatio, successRate, avgUniqueContributions
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
