//go:generate goverter gen github.com/DRSN-tech/shop-backend/internal/repository/redis/converter

package converter

import (
	"github.com/DRSN-tech/shop-backend/internal/domain"
	"github.com/DRSN-tech/shop-backend/internal/usecase"
)

// goverter:converter
// goverter:extend ConvertAvailability
type ProductInfoConverter interface {
	ToRedisModel(entity *usecase.ProductInfo) *ProductInfoRedisModel
	// goverter:ignore ImageURL
	// goverter:map Quantity Availability | ConvertAvailability
	ToUseCase(model *ProductInfoRedisModel) *usecase.ProductInfo
	ToArrRedisModel(entities []usecase.ProductInfo) []ProductInfoRedisModel
	ToArrUseCase(models []ProductInfoRedisModel) []usecase.ProductInfo
}

func ConvertAvailability(quantity int64) domain.Availability {
	return domain.AvailabilityOf(quantity)
}
