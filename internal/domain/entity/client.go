package entity

import "time"

// Client representa un cliente de la empresa.
// Un consumidor final puede omitir Identifier; un cliente con crédito fiscal debe tener RNC o cédula.
type Client struct {
	ID              string
	CompanyID       string
	Name            string
	Identifier      string
	Email           string
	Phone           string
	Address         string
	IsFinalConsumer bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Series serie de NCF que corresponde al cliente.
func (c *Client) Series() NCFSeries {
	if c.IsFinalConsumer {
		return SeriesFinal
	}
	return SeriesFiscal
}
