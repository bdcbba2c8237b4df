package detail

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownSymbol = errors.New("unknown market symbol")

// Key identifies a market's detail bundle.
type Key string

const (
	KeyCrudeOil Key = "crude_oil"
	KeySugar    Key = "sugar"
	KeyUSDTHB   Key = "usd_thb"
)

// Keys lists every market with a detail bundle.
var Keys = []Key{KeyCrudeOil, KeySugar, KeyUSDTHB}

// aliases maps upper-cased display symbols and vendor codes to keys.
var aliases = map[string]Key{
	"CO":        KeyCrudeOil,
	"CRUDE_OIL": KeyCrudeOil,
	"CRUDE OIL": KeyCrudeOil,
	"CL=F":      KeyCrudeOil,
	"WTI":       KeyCrudeOil,
	"SUGAR":     KeySugar,
	"SB=F":      KeySugar,
	"USDTHB":    KeyUSDTHB,
	"USD_THB":   KeyUSDTHB,
	"USD/THB":   KeyUSDTHB,
	"THB=X":     KeyUSDTHB,
}

func init() {
	for _, k := range Keys {
		aliases[strings.ToUpper(string(k))] = k
	}
}

// Resolve maps a display symbol to its market key, ignoring case.
func Resolve(symbol string) (Key, error) {
	if k, ok := aliases[strings.ToUpper(strings.TrimSpace(symbol))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
}

// HasDetail reports whether symbol resolves to a market key.
func HasDetail(symbol string) bool {
	_, err := Resolve(symbol)
	return err == nil
}
