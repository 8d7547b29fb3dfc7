package payment

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"time"

	"dormweb/pkg/logging"
	"dormweb/pkg/models"
)

const (
	BookingsPath = "/bookings"

	CodeSuccess = "00"

	MessageSuccess      = "Thanh toán thành công! Đang chuyển hướng..."
	MessageFailed       = "Giao dịch không thành công. Vui lòng thử lại sau."
	MessageVerifyFailed = "Có lỗi xảy ra khi xác thực thanh toán"

	SuccessDelay        = 3 * time.Second
	FailureDelay        = 5 * time.Second
	BookingSuccessDelay = 2 * time.Second
)

var responseMessages = map[string]string{
	"07": "Trừ tiền thành công. Giao dịch bị nghi ngờ (liên quan tới lừa đảo, giao dịch bất thường).",
	"09": "Thẻ/Tài khoản của khách hàng chưa đăng ký dịch vụ InternetBanking tại ngân hàng.",
	"10": "Khách hàng xác thực thông tin thẻ/tài khoản không đúng quá 3 lần",
	"11": "Đã hết hạn chờ thanh toán. Xin quý khách vui lòng thực hiện lại giao dịch.",
	"12": "Thẻ/Tài khoản của khách hàng bị khóa.",
	"13": "Quý khách nhập sai mật khẩu xác thực giao dịch (OTP). Xin quý khách vui lòng thực hiện lại giao dịch.",
	"24": "Khách hàng hủy giao dịch",
	"51": "Tài khoản của quý khách không đủ số dư để thực hiện giao dịch.",
	"65": "Tài khoản của Quý khách đã vượt quá hạn mức giao dịch trong ngày.",
	"75": "Ngân hàng thanh toán đang bảo trì.",
	"79": "KH nhập sai mật khẩu thanh toán quá số lần quy định. Xin quý khách vui lòng thực hiện lại giao dịch",
	"99": "Các lỗi khác (lỗi còn lại, không có trong danh sách mã lỗi đã liệt kê)",
}

// Outcome is what the return page shows and where it sends the user next.
type Outcome struct {
	Success    bool
	Code       string
	Message    string
	RedirectTo string
	Delay      time.Duration
}

func (o Outcome) DelaySeconds() int {
	return int(o.Delay / time.Second)
}

func ResponseMessage(code string) string {
	if msg, ok := responseMessages[code]; ok {
		return msg
	}
	return MessageFailed
}

// InterpretVNPayReturn maps the callback query to an outcome using
// vnp_ResponseCode alone.
func InterpretVNPayReturn(params url.Values) Outcome {
	code := params.Get("vnp_ResponseCode")
	if code == CodeSuccess {
		return Outcome{Success: true, Code: code, Message: MessageSuccess, RedirectTo: BookingsPath, Delay: SuccessDelay}
	}
	return failure(code, ResponseMessage(code))
}

func failure(code, message string) Outcome {
	return Outcome{Code: code, Message: message, RedirectTo: BookingsPath, Delay: FailureDelay}
}

type Verifier interface {
	VerifyVNPayReturn(ctx context.Context, params url.Values) (json.RawMessage, error)
}

// ReturnHandler interprets VNPay callbacks, optionally confirming them with
// the backend first.
type ReturnHandler struct {
	verifier Verifier
	logger   *slog.Logger
}

// NewReturnHandler builds a handler; a nil verifier disables backend verification.
func NewReturnHandler(verifier Verifier, logger *slog.Logger) *ReturnHandler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &ReturnHandler{verifier: verifier, logger: logger.With(slog.String("component", "payment"))}
}

func (h *ReturnHandler) Handle(ctx context.Context, params url.Values) Outcome {
	if h.verifier != nil {
		if _, err := h.verifier.VerifyVNPayReturn(ctx, params); err != nil {
			h.logger.Error("vnpay return verification failed",
				slog.String("txn_ref", params.Get("vnp_TxnRef")),
				slog.Any("error", err))
			return failure(params.Get("vnp_ResponseCode"), MessageVerifyFailed)
		}
	}
	out := InterpretVNPayReturn(params)
	h.logger.Info("vnpay return",
		slog.String("code", out.Code),
		slog.Bool("success", out.Success),
		slog.String("txn_ref", params.Get("vnp_TxnRef")))
	return out
}

// Redirect tells the booking page where to go after a successful submission.
type Redirect struct {
	URL      string
	External bool
	Delay    time.Duration
}

func RedirectAfterBooking(info models.PaymentInfo) Redirect {
	if info.HasRedirect() {
		return Redirect{URL: info.PaymentURL, External: true}
	}
	return Redirect{URL: BookingsPath, Delay: BookingSuccessDelay}
}
