package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Limpieza periódica: las filas inactivas viejas no le sirven a nadie
// (el bot solo relee las activas al arrancar).
func handler(ctx context.Context) (string, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return "no DATABASE_URL", nil
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Sprintf("parse: %v", err), nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Sprintf("pool: %v", err), nil
	}
	defer pool.Close()

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	q, _ := pool.Exec(cctx, `DELETE FROM lfg_queues WHERE NOT is_active AND ends_at < now() - INTERVAL '7 days';`)
	s, _ := pool.Exec(cctx, `DELETE FROM lfg_searches WHERE NOT is_active AND ends_at < now() - INTERVAL '7 days';`)

	return fmt.Sprintf("ok: %d colas, %d búsquedas", q.RowsAffected(), s.RowsAffected()), nil
}

func main() { lambda.Start(handler) }
