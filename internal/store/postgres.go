package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rpgo/wealth-optimizer/internal/domain"
	"github.com/shopspring/decimal"
)

const schema = `
CREATE SCHEMA IF NOT EXISTS wealth;
CREATE TABLE IF NOT EXISTS wealth.loans (
	id              BIGSERIAL PRIMARY KEY,
	name            TEXT NOT NULL,
	loan_type       TEXT NOT NULL DEFAULT 'OTHER',
	balance         NUMERIC(14, 2) NOT NULL,
	interest_rate   NUMERIC(7, 4) NOT NULL,
	term_years      NUMERIC(6, 2) NOT NULL DEFAULT 0,
	minimum_payment NUMERIC(14, 2) NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS wealth.portfolios (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	goal_amount NUMERIC(14, 2) NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS wealth.holdings (
	id             BIGSERIAL PRIMARY KEY,
	portfolio_id   BIGINT NOT NULL REFERENCES wealth.portfolios(id) ON DELETE CASCADE,
	name           TEXT NOT NULL,
	symbol         TEXT NOT NULL DEFAULT '',
	investment_type TEXT NOT NULL DEFAULT 'OTHER',
	purchase_date  DATE,
	quantity       NUMERIC(18, 6) NOT NULL,
	purchase_price NUMERIC(14, 4) NOT NULL,
	current_price  NUMERIC(14, 4)
);`

// PostgresStore is a Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres opens and pings a PostgreSQL connection.
func OpenPostgres(ctx context.Context, conn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", conn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables when they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// CreateLoan inserts a loan and sets its ID.
func (s *PostgresStore) CreateLoan(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO wealth.loans (name, loan_type, balance, interest_rate, term_years, minimum_payment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := s.db.QueryRowContext(ctx, query, loan.Name, string(loanType(loan.Type)), loan.Balance,
		loan.InterestRate, loan.TermYears, loan.MinimumPayment).Scan(&loan.ID)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// CreatePortfolio inserts a portfolio with its holdings in one transaction and sets its ID.
func (s *PostgresStore) CreatePortfolio(ctx context.Context, p *domain.Portfolio) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO wealth.portfolios (name, description, goal_amount)
		VALUES ($1, $2, $3)
		RETURNING id`
	if err := tx.QueryRowContext(ctx, query, p.Name, p.Description, p.GoalAmount).Scan(&p.ID); err != nil {
		return fmt.Errorf("failed to create portfolio: %w", err)
	}

	holdingQuery := `
		INSERT INTO wealth.holdings (portfolio_id, name, symbol, investment_type, purchase_date, quantity, purchase_price, current_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, h := range p.Holdings {
		var purchased sql.NullTime
		if !h.PurchaseDate.IsZero() {
			purchased = sql.NullTime{Time: h.PurchaseDate, Valid: true}
		}
		var current decimal.NullDecimal
		if h.CurrentPrice != nil {
			current = decimal.NewNullDecimal(*h.CurrentPrice)
		}
		if _, err := tx.ExecContext(ctx, holdingQuery, p.ID, h.Name, h.Symbol, string(investmentType(h.Type)),
			purchased, h.Quantity, h.PurchasePrice, current); err != nil {
			return fmt.Errorf("failed to create holding %s: %w", h.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit portfolio: %w", err)
	}
	return nil
}

// GetLoan retrieves a loan by ID
func (s *PostgresStore) GetLoan(ctx context.Context, id int64) (*domain.Loan, error) {
	query := `
		SELECT id, name, loan_type, balance, interest_rate, term_years, minimum_payment
		FROM wealth.loans
		WHERE id = $1`
	loan, err := scanLoan(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("loan %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find loan: %w", err)
	}
	return loan, nil
}

// ListLoans retrieves every loan ordered by ID
func (s *PostgresStore) ListLoans(ctx context.Context) ([]domain.Loan, error) {
	query := `
		SELECT id, name, loan_type, balance, interest_rate, term_years, minimum_payment
		FROM wealth.loans
		ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, *loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	return loans, nil
}

// GetPortfolio retrieves a portfolio with its holdings
func (s *PostgresStore) GetPortfolio(ctx context.Context, id int64) (*domain.Portfolio, error) {
	p := &domain.Portfolio{}
	query := `
		SELECT id, name, description, goal_amount
		FROM wealth.portfolios
		WHERE id = $1`
	err := s.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Description, &p.GoalAmount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("portfolio %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find portfolio: %w", err)
	}

	holdingQuery := `
		SELECT name, symbol, investment_type, purchase_date, quantity, purchase_price, current_price
		FROM wealth.holdings
		WHERE portfolio_id = $1
		ORDER BY id`
	rows, err := s.db.QueryContext(ctx, holdingQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			h         domain.Holding
			typ       string
			purchased sql.NullTime
			current   decimal.NullDecimal
		)
		if err := rows.Scan(&h.Name, &h.Symbol, &typ, &purchased, &h.Quantity, &h.PurchasePrice, &current); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		h.Type = investmentType(domain.InvestmentType(typ))
		if purchased.Valid {
			h.PurchaseDate = purchased.Time
		}
		if current.Valid {
			price := current.Decimal
			h.CurrentPrice = &price
		}
		p.Holdings = append(p.Holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(row rowScanner) (*domain.Loan, error) {
	var (
		loan domain.Loan
		typ  string
	)
	if err := row.Scan(&loan.ID, &loan.Name, &typ, &loan.Balance, &loan.InterestRate, &loan.TermYears, &loan.MinimumPayment); err != nil {
		return nil, err
	}
	loan.Type = loanType(domain.LoanType(typ))
	return &loan, nil
}

// loanType normalizes stored values; unknown types read as OTHER.
func loanType(t domain.LoanType) domain.LoanType {
	parsed, err := domain.ParseLoanType(string(t))
	if err != nil {
		return domain.LoanTypeOther
	}
	return parsed
}

func investmentType(t domain.InvestmentType) domain.InvestmentType {
	parsed, err := domain.ParseInvestmentType(string(t))
	if err != nil {
		return domain.InvestmentOther
	}
	return parsed
}
