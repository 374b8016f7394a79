package zalopay

// Provider return codes. Anything other than success is surfaced to the
// caller with the provider's message.
const (
	ReturnCodeSuccess    = 1
	ReturnCodeFailure    = 2
	ReturnCodeProcessing = 3
)

// Acknowledgement codes for the callback response. The provider retries on
// anything other than accepted, so the callback endpoint must always answer
// one of these.
const (
	AckAccepted      = 1
	AckInvalidMAC    = -1
	AckInternalError = 0
)

// Item is one order line in the transmitted "item" JSON array.
type Item struct {
	ItemID       string `json:"itemid"`
	ItemName     string `json:"itemname"`
	ItemPrice    int64  `json:"itemprice"`
	ItemQuantity int    `json:"itemquantity"`
}

// CreateOrderParams describes one payment attempt. AppTransID must be stored
// on the order before the request is sent; it is the key a callback is
// correlated by.
type CreateOrderParams struct {
	AppTransID  string
	AppUser     string
	Amount      int64
	Description string
	BankCode    string
	Items       []Item
	EmbedData   map[string]string
}

type CreateResponse struct {
	ReturnCode       int    `json:"return_code"`
	ReturnMessage    string `json:"return_message"`
	SubReturnCode    int    `json:"sub_return_code"`
	SubReturnMessage string `json:"sub_return_message"`
	ZPTransToken     string `json:"zp_trans_token"`
	OrderURL         string `json:"order_url"`
	OrderToken       string `json:"order_token"`
}

// CallbackEnvelope is the raw inbound callback body. Data stays a string:
// the MAC covers the exact bytes received, so it must never be re-serialized
// before verification.
type CallbackEnvelope struct {
	Data string `json:"data"`
	MAC  string `json:"mac"`
	Type int    `json:"type"`
}

// CallbackData is the payload inside CallbackEnvelope.Data, parsed only
// after the MAC has been verified.
type CallbackData struct {
	AppID          int    `json:"app_id"`
	AppTransID     string `json:"app_trans_id"`
	AppTime        int64  `json:"app_time"`
	AppUser        string `json:"app_user"`
	Amount         int64  `json:"amount"`
	EmbedData      string `json:"embed_data"`
	Item           string `json:"item"`
	ZPTransID      int64  `json:"zp_trans_id"`
	ServerTime     int64  `json:"server_time"`
	Channel        int    `json:"channel"`
	MerchantUserID string `json:"merchant_user_id"`
	UserFeeAmount  int64  `json:"user_fee_amount"`
	DiscountAmount int64  `json:"discount_amount"`
}

// CallbackAck is the only shape the callback endpoint ever answers with.
type CallbackAck struct {
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
}

type RefundParams struct {
	ZPTransID   int64
	Amount      int64
	Description string
}

type RefundResponse struct {
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
	RefundID      int64  `json:"refund_id"`
}

type QueryResponse struct {
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
	IsProcessing  bool   `json:"is_processing"`
	Amount        int64  `json:"amount"`
	ZPTransID     int64  `json:"zp_trans_id"`
}

type RefundQueryResponse struct {
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
}
