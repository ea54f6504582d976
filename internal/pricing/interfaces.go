package pricing

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/pricing"
)

// PricingAPI defines the interface for AWS Price List operations we use
// (enables mocking)
type PricingAPI interface {
	GetProducts(ctx context.Context, params *pricing.GetProductsInput, optFns ...func(*pricing.Options)) (*pricing.GetProductsOutput, error)
}
