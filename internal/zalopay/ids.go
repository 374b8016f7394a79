package zalopay

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// NewAppTransID generates the merchant transaction id for one payment
// attempt: yyMMdd_<6 random digits>. The provider requires the date prefix;
// the random suffix keeps attempts distinct.
func NewAppTransID(now time.Time) string {
	return fmt.Sprintf("%s_%06d", now.Format("060102"), rand.IntN(1000000))
}

// NewRefundID generates the merchant refund id:
// yyMMdd_<appID>_<unix millis + 3 random digits>.
func NewRefundID(now time.Time, appID int) string {
	return fmt.Sprintf("%s_%d_%d%03d", now.Format("060102"), appID, now.UnixMilli(), rand.IntN(1000))
}
