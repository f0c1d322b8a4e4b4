package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"beestore/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CartRepository keeps each user's cart as a Redis hash of product ID to quantity.
// Carts are transient: they expire after TTL without writes and are never
// stored in Postgres.
type CartRepository interface {
	Load(ctx context.Context, userID uuid.UUID) (domain.Cart, error)
	Add(ctx context.Context, userID, productID uuid.UUID, qty int) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Consume(ctx context.Context, userID uuid.UUID, bought domain.Cart) error
}

// consumeScript subtracts the bought quantities and drops fields that reach
// zero, leaving anything added since the cart was read.
var consumeScript = redis.NewScript(`
for i = 1, #ARGV, 2 do
	local left = redis.call("HINCRBY", KEYS[1], ARGV[i], -tonumber(ARGV[i + 1]))
	if left <= 0 then
		redis.call("HDEL", KEYS[1], ARGV[i])
	end
end
return redis.call("HLEN", KEYS[1])
`)

type cartRepository struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(client *redis.Client, keyPrefix string, ttl time.Duration) CartRepository {
	return &cartRepository{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (r *cartRepository) key(userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", r.keyPrefix, userID)
}

// Load reads the cart. Fields that are not a product ID with a positive
// quantity are ignored.
func (r *cartRepository) Load(ctx context.Context, userID uuid.UUID) (domain.Cart, error) {
	fields, err := r.client.HGetAll(ctx, r.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	cart := make(domain.Cart, len(fields))
	for field, value := range fields {
		productID, err := uuid.Parse(field)
		if err != nil {
			continue
		}
		qty, err := strconv.Atoi(value)
		if err != nil || qty < 1 {
			continue
		}
		cart[productID] = qty
	}

	return cart, nil
}

// Add increments a product's quantity and refreshes the cart's TTL. An
// increment that would push the line past domain.MaxLineQuantity is undone.
func (r *cartRepository) Add(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	if qty < 1 {
		return domain.ErrInvalidQuantity
	}
	if qty > domain.MaxLineQuantity {
		return fmt.Errorf("%w: %d", domain.ErrQuantityLimit, domain.MaxLineQuantity)
	}

	key := r.key(userID)
	field := productID.String()
	pipe := r.client.TxPipeline()
	total := pipe.HIncrBy(ctx, key, field, int64(qty))
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add to cart: %w", err)
	}

	if total.Val() > domain.MaxLineQuantity {
		if err := r.client.HIncrBy(ctx, key, field, int64(-qty)).Err(); err != nil {
			return fmt.Errorf("failed to undo cart increment: %w", err)
		}
		return fmt.Errorf("%w: %d", domain.ErrQuantityLimit, domain.MaxLineQuantity)
	}

	return nil
}

// Remove deletes a product from the cart
func (r *cartRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if err := r.client.HDel(ctx, r.key(userID), productID.String()).Err(); err != nil {
		return fmt.Errorf("failed to remove from cart: %w", err)
	}
	return nil
}

// Consume takes the bought quantities out of the cart in one atomic step
func (r *cartRepository) Consume(ctx context.Context, userID uuid.UUID, bought domain.Cart) error {
	if len(bought) == 0 {
		return nil
	}

	args := make([]interface{}, 0, 2*len(bought))
	for _, id := range bought.ProductIDs() {
		args = append(args, id.String(), bought[id])
	}
	if err := consumeScript.Run(ctx, r.client, []string{r.key(userID)}, args...).Err(); err != nil {
		return fmt.Errorf("failed to consume cart: %w", err)
	}
	return nil
}
