package tradelog

// schemaDDL rebuilds the mirror from scratch; it holds nothing that Replace
// does not rewrite.
const schemaDDL = `
DROP VIEW IF EXISTS v_daily_pnl;
DROP VIEW IF EXISTS v_ticker_pnl;
DROP TABLE IF EXISTS trades;

CREATE TABLE IF NOT EXISTS trades (
	seq            INTEGER PRIMARY KEY,
	ticker         TEXT NOT NULL,
	buy_time       TEXT NOT NULL,
	sell_time      TEXT NOT NULL,
	sell_day       TEXT NOT NULL,
	sell_at        INTEGER,
	buy_price      REAL,
	sell_price     REAL,
	shares         REAL,
	cost           REAL,
	proceeds       REAL,
	profit         REAL,
	percent_profit REAL,
	portfolio      REAL
);

CREATE INDEX IF NOT EXISTS idx_trades_ticker ON trades(ticker);
CREATE INDEX IF NOT EXISTS idx_trades_day ON trades(sell_day);
CREATE INDEX IF NOT EXISTS idx_trades_sell_at ON trades(sell_at);

CREATE VIEW IF NOT EXISTS v_daily_pnl AS
SELECT
	sell_day AS date,
	CASE WHEN COUNT(profit) < COUNT(*) THEN NULL ELSE COALESCE(SUM(profit), 0) END AS profit,
	CASE WHEN COUNT(cost) < COUNT(*) THEN NULL ELSE COALESCE(SUM(cost), 0) END AS cost,
	COUNT(*) AS trades,
	SUM(CASE WHEN profit > 0 THEN 1 ELSE 0 END) AS wins
FROM trades
GROUP BY sell_day
ORDER BY sell_day;

CREATE VIEW IF NOT EXISTS v_ticker_pnl AS
SELECT
	ticker,
	CASE WHEN COUNT(profit) < COUNT(*) THEN NULL ELSE COALESCE(SUM(profit), 0) END AS profit,
	COUNT(*) AS trades
FROM trades
GROUP BY ticker
ORDER BY profit DESC;
`
