package api

import (
	"trade-journal/internal/domain"
	"trade-journal/internal/risk"
)

// contractDTO is a wire representation of a contract.
type contractDTO struct {
	ContractID   string   `json:"contractId"`
	EntryPrice   float64  `json:"entryPrice"`
	Shares       int64    `json:"shares"`
	ContractStop *float64 `json:"contractStop,omitempty"`
	AddedAt      int64    `json:"addedAt"`
}

// tradeDTO is a wire representation of a trade.
type tradeDTO struct {
	TradeID      string        `json:"tradeId"`
	Symbol       string        `json:"symbol"`
	Direction    string        `json:"direction"`
	Market       string        `json:"market"`
	Entry        float64       `json:"entry"`
	Stop         float64       `json:"stop"`
	Target       *float64      `json:"target,omitempty"`
	PositionSize int64         `json:"positionSize"`
	RiskAmount   float64       `json:"riskAmount"`
	Contracts    []contractDTO `json:"contracts"`
	Status       string        `json:"status"`
	Notes        string        `json:"notes,omitempty"`
	CreatedAt    int64         `json:"createdAt"`
	UpdatedAt    int64         `json:"updatedAt"`
	ClosedAt     *int64        `json:"closedAt,omitempty"`
	ExitPrice    *float64      `json:"exitPrice,omitempty"`
	RealizedPnL  *float64      `json:"realizedPnl,omitempty"`
	RealizedR    *float64      `json:"realizedR,omitempty"`
}

func toTradeDTO(t *domain.Trade) tradeDTO {
	contracts := make([]contractDTO, len(t.Contracts))
	for i, c := range t.Contracts {
		contracts[i] = contractDTO{
			ContractID:   c.ContractID,
			EntryPrice:   c.EntryPrice,
			Shares:       c.Shares,
			ContractStop: c.ContractStop,
			AddedAt:      c.AddedAt,
		}
	}
	return tradeDTO{
		TradeID:      t.TradeID,
		Symbol:       t.Symbol,
		Direction:    string(t.Direction),
		Market:       string(t.Market),
		Entry:        t.Entry,
		Stop:         t.Stop,
		Target:       t.Target,
		PositionSize: t.PositionSize,
		RiskAmount:   t.RiskAmount,
		Contracts:    contracts,
		Status:       string(t.Status),
		Notes:        t.Notes,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		ClosedAt:     t.ClosedAt,
		ExitPrice:    t.ExitPrice,
		RealizedPnL:  t.RealizedPnL,
		RealizedR:    t.RealizedR,
	}
}

func toTradeDTOs(trades []*domain.Trade) []tradeDTO {
	out := make([]tradeDTO, len(trades))
	for i, t := range trades {
		out[i] = toTradeDTO(t)
	}
	return out
}

// sessionDTO is returned from auth endpoints.
type sessionDTO struct {
	Token     string `json:"token"`
	UserID    string `json:"userId"`
	Guest     bool   `json:"guest"`
	ExpiresAt int64  `json:"expiresAt"`
}

func toSessionDTO(s *domain.Session) sessionDTO {
	return sessionDTO{
		Token:     s.Token,
		UserID:    s.UserID,
		Guest:     s.Guest,
		ExpiresAt: s.ExpiresAt,
	}
}

// userDTO is the public slice of an account.
type userDTO struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{
		UserID:      u.UserID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

// settingsDTO is the wire representation of settings.
type settingsDTO struct {
	Capital        float64 `json:"capital"`
	DefaultRiskPct float64 `json:"defaultRiskPct"`
	DefaultMarket  string  `json:"defaultMarket"`
	Currency       string  `json:"currency"`
	UpdatedAt      int64   `json:"updatedAt"`
}

func toSettingsDTO(s *domain.Settings) settingsDTO {
	return settingsDTO{
		Capital:        s.Capital,
		DefaultRiskPct: s.DefaultRiskPct,
		DefaultMarket:  string(s.DefaultMarket),
		Currency:       s.Currency,
		UpdatedAt:      s.UpdatedAt,
	}
}

// quoteDTO is the wire representation of a quote.
type quoteDTO struct {
	Symbol    string  `json:"symbol"`
	Market    string  `json:"market"`
	Name      string  `json:"name,omitempty"`
	Price     float64 `json:"price"`
	PrevClose float64 `json:"prevClose"`
	ChangePct float64 `json:"changePct"`
	Currency  string  `json:"currency"`
	AsOf      int64   `json:"asOf"`
	Source    string  `json:"source"`
}

func toQuoteDTO(q *domain.Quote) quoteDTO {
	return quoteDTO{
		Symbol:    q.Symbol,
		Market:    string(q.Market),
		Name:      q.Name,
		Price:     q.Price,
		PrevClose: q.PrevClose,
		ChangePct: q.ChangePct,
		Currency:  q.Currency,
		AsOf:      q.AsOf,
		Source:    q.Source,
	}
}

// candleDTO is one daily OHLCV bar.
type candleDTO struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

func toCandleDTOs(candles []domain.Candle) []candleDTO {
	out := make([]candleDTO, len(candles))
	for i, c := range candles {
		out[i] = candleDTO{
			Date:   c.Date,
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,
		}
	}
	return out
}

// calcResultDTO is the sizing calculator response.
type calcResultDTO struct {
	Shares       int64    `json:"shares"`
	RiskBudget   float64  `json:"riskBudget"`
	ActualRisk   float64  `json:"actualRisk"`
	RiskPerShare float64  `json:"riskPerShare"`
	PositionCost float64  `json:"positionCost"`
	RewardRisk   *float64 `json:"rewardRisk,omitempty"`
}

func toCalcResultDTO(r *risk.Result) calcResultDTO {
	return calcResultDTO{
		Shares:       r.Shares,
		RiskBudget:   r.RiskBudget,
		ActualRisk:   r.ActualRisk,
		RiskPerShare: r.RiskPerShare,
		PositionCost: r.PositionCost,
		RewardRisk:   r.RewardRisk,
	}
}
