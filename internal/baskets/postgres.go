package baskets

import (
	"context"
	"time"

	"mb-basketd/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresJournal mirrors every basket/item transition into Postgres. It is
// write-through and best-effort; reads go to the memory arena.
type PostgresJournal struct {
	pool *pgxpool.Pool
}

func NewPostgresJournal(pool *pgxpool.Pool) *PostgresJournal {
	return &PostgresJournal{pool: pool}
}

const schema = `
create table if not exists baskets (
	id uuid primary key,
	name text not null,
	item_type text not null,
	algorithm text not null,
	max_brokers int not null,
	status text not null,
	items_count int not null,
	created_at timestamptz not null,
	updated_at timestamptz not null,
	completed_at timestamptz
);
create table if not exists basket_items (
	id uuid primary key,
	basket_id uuid not null references baskets(id) on delete cascade,
	symbol text not null,
	expiry text not null,
	strike numeric not null,
	option_type text not null,
	transaction_type text not null,
	qty int not null,
	lot_size int not null,
	token bigint not null,
	order_kind text not null,
	limit_price numeric,
	trigger_price numeric,
	product text not null,
	assigned_broker text,
	status text not null,
	broker_order_id text,
	fill_price numeric,
	error_kind text,
	error_message text,
	attempts int not null default 0,
	created_at timestamptz not null,
	updated_at timestamptz not null
);
create index if not exists basket_items_basket_id_idx on basket_items (basket_id);
`

func (j *PostgresJournal) EnsureSchema(ctx context.Context) error {
	_, err := j.pool.Exec(ctx, schema)
	return err
}

func (j *PostgresJournal) SaveBasket(ctx context.Context, b model.Basket) error {
	_, err := j.pool.Exec(ctx, "insert into baskets (id, name, item_type, algorithm, max_brokers, status, items_count, created_at, updated_at, completed_at) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) on conflict (id) do update set status = $6, updated_at = $9, completed_at = $10",
		b.ID, b.Name, b.ItemType, string(b.Algorithm), b.MaxBrokers, string(b.Status), b.ItemsCount, b.CreatedAt, time.Now().UTC(), b.CompletedAt)
	return err
}

func (j *PostgresJournal) SaveItems(ctx context.Context, items []model.BasketItem) error {
	for _, it := range items {
		var brokerOrderID, errKind, errMessage *string
		var fillPrice any
		if it.Result != nil {
			brokerOrderID = &it.Result.BrokerOrderID
			fillPrice = it.Result.Price
		}
		if it.Error != nil {
			k := string(it.Error.Kind)
			errKind = &k
			errMessage = &it.Error.Message
		}
		var assigned *string
		if it.AssignedBroker != "" {
			assigned = &it.AssignedBroker
		}
		_, err := j.pool.Exec(ctx, "insert into basket_items (id, basket_id, symbol, expiry, strike, option_type, transaction_type, qty, lot_size, token, order_kind, limit_price, trigger_price, product, assigned_broker, status, broker_order_id, fill_price, error_kind, error_message, attempts, created_at, updated_at) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23) on conflict (id) do update set assigned_broker = $15, status = $16, broker_order_id = $17, fill_price = $18, error_kind = $19, error_message = $20, attempts = $21, updated_at = $23",
			it.ID, it.BasketID, it.Symbol, it.Expiry, it.Strike, string(it.OptionType), string(it.Transaction), it.Qty, it.LotSize, it.Token, string(it.Kind), it.LimitPrice, it.TriggerPrice, string(it.Product), assigned, string(it.Status), brokerOrderID, fillPrice, errKind, errMessage, it.Attempts, it.CreatedAt, time.Now().UTC())
		if err != nil {
			return err
		}
	}
	return nil
}
