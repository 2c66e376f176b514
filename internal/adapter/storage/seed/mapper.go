package seed

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	dto "chain-reverse-resolver/internal/adapter/storage/seed/dto"
	"chain-reverse-resolver/internal/domain/entity"
	"chain-reverse-resolver/internal/pkg/apperrors"
)

// toDomainSeed converts the raw seed to its domain entity.
func toDomainSeed(raw dto.SeedRaw, logger *zap.Logger) (*entity.DevSeed, error) {
	if !common.IsHexAddress(raw.L2Registrar) {
		return nil, fmt.Errorf("%w: l2_registrar %q is not an address", apperrors.ErrInvalidInput, raw.L2Registrar)
	}
	if _, err := entity.CoinTypeFromChain(raw.ChainID); err != nil {
		return nil, err
	}

	return &entity.DevSeed{
		ChainID:      raw.ChainID,
		L2Registrar:  common.HexToAddress(raw.L2Registrar),
		NamesSlot:    raw.NamesSlot,
		L2Names:      toNameMap(raw.L2Names, logger),
		DefaultNames: toNameMap(raw.DefaultNames, logger),
	}, nil
}

// toNameMap keeps the last record of every valid address.
func toNameMap(records []dto.NameRaw, logger *zap.Logger) map[common.Address]string {
	names := make(map[common.Address]string, len(records))
	for _, rec := range records {
		if !common.IsHexAddress(rec.Address) {
			logger.Warn("Skipping seed record with invalid address", zap.String("address", rec.Address))
			continue
		}
		names[common.HexToAddress(rec.Address)] = rec.Name
	}
	return names
}
