package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rl1809/order-backoffice/internal/core/domain"
)

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "50!% off!_now!!", escapeLike("50% off_now!"))
	assert.Equal(t, "plain", escapeLike("plain"))
}

func TestCriteriaClause(t *testing.T) {
	status := int64(4)

	from, args := criteriaClause(domain.OrderCriteria{})
	assert.Equal(t, "FROM customer_order o", from)
	assert.Empty(t, args)

	from, args = criteriaClause(domain.OrderCriteria{StatusID: &status, ProductID: 9})
	assert.Equal(t, "FROM customer_order o WHERE o.status_id = ? AND o.product_id = ?", from)
	assert.Equal(t, []any{int64(4), int64(9)}, args)

	from, args = criteriaClause(domain.OrderCriteria{Search: "Ab%"})
	assert.Contains(t, from, "JOIN customers c ON c.id = o.customer_id")
	assert.Contains(t, from, "LOWER(COALESCE(c.phone2, '')) LIKE ? ESCAPE '!'")
	assert.Len(t, args, 4)
	for _, a := range args {
		assert.Equal(t, "%ab!%%", a)
	}
}
