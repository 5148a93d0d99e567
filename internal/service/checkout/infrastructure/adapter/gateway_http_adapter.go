package adapter

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"bazaar/internal/pkg/httpclient"
	"bazaar/internal/service/checkout/domain"
	"bazaar/internal/service/checkout/domain/port"
)

// GatewayHTTPAdapter 实现了 port.PaymentGateway 接口。
// 走通用的可追踪 HTTP 客户端，网关协议是表单进 JSON 出。
type GatewayHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
}

func NewGatewayHTTPAdapter(client *httpclient.Client, baseURL string) *GatewayHTTPAdapter {
	return &GatewayHTTPAdapter{client: client, baseURL: baseURL}
}

type gatewayRequestResponse struct {
	Status    int    `json:"status"`
	Authority string `json:"authority"`
}

type gatewayVerifyResponse struct {
	Status int    `json:"status"`
	RefID  string `json:"ref_id"`
}

// 网关约定 status=100 为成功
const gatewayStatusOK = 100

func (a *GatewayHTTPAdapter) RequestPayment(ctx context.Context, amount int64, orderID, callbackURL string) (*port.PaymentInitResult, error) {
	params := url.Values{}
	params.Set("amount", strconv.FormatInt(amount, 10))
	params.Set("order_id", orderID)
	params.Set("callback_url", callbackURL)

	body, err := a.client.PostForm(ctx, a.baseURL+"/payment/request", params)
	if err != nil {
		return nil, errors.Wrap(err, "payment gateway request")
	}

	var resp gatewayRequestResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "decode gateway response")
	}
	if resp.Status != gatewayStatusOK || resp.Authority == "" {
		return nil, errors.Errorf("payment gateway rejected request with status %d", resp.Status)
	}

	return &port.PaymentInitResult{
		Authority:   resp.Authority,
		RedirectURL: a.baseURL + "/payment/start/" + resp.Authority,
	}, nil
}

func (a *GatewayHTTPAdapter) VerifyPayment(ctx context.Context, amount int64, authority string) (*port.PaymentVerifyResult, error) {
	params := url.Values{}
	params.Set("amount", strconv.FormatInt(amount, 10))
	params.Set("authority", authority)

	body, err := a.client.PostForm(ctx, a.baseURL+"/payment/verify", params)
	if err != nil {
		return nil, errors.Wrap(err, "payment gateway verify")
	}

	var resp gatewayVerifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "decode gateway verify response")
	}
	if resp.Status != gatewayStatusOK {
		return nil, domain.ErrPaymentRejected
	}

	return &port.PaymentVerifyResult{RefID: resp.RefID}, nil
}

// ReversePayment 通知网关作废一笔未完成的支付。
func (a *GatewayHTTPAdapter) ReversePayment(ctx context.Context, authority string) error {
	params := url.Values{}
	params.Set("authority", authority)

	body, err := a.client.PostForm(ctx, a.baseURL+"/payment/reverse", params)
	if err != nil {
		return errors.Wrap(err, "payment gateway reverse")
	}

	var resp gatewayRequestResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return errors.Wrap(err, "decode gateway reverse response")
	}
	if resp.Status != gatewayStatusOK {
		return errors.Errorf("payment gateway refused reversal with status %d", resp.Status)
	}
	return nil
}
