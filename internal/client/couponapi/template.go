package couponapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"onecoupon-console/internal/domain/coupon"
)

const (
	pathCreateTemplate    = "/coupon-template/create"
	pathPageTemplates     = "/coupon-template/page"
	pathQueryTemplate     = "/coupon-template/query"
	pathTerminateTemplate = "/coupon-template/terminate"
	pathIncreaseStock     = "/coupon-template/increase-stock"
)

type createTemplateBody struct {
	Name           string  `json:"name"`
	Source         int     `json:"source"`
	Target         int     `json:"target"`
	Goods          *string `json:"goods"`
	Type           int     `json:"type"`
	ValidStartTime string  `json:"validStartTime"`
	ValidEndTime   string  `json:"validEndTime"`
	Stock          int64   `json:"stock"`
	ReceiveRule    string  `json:"receiveRule"`
	ConsumeRule    string  `json:"consumeRule"`
}

// CreateTemplate creates a coupon template.
func (c *Client) CreateTemplate(ctx context.Context, req *coupon.CreateTemplateRequest) (*Result[json.RawMessage], error) {
	body, err := json.Marshal(createTemplateBody{
		Name:           req.Name,
		Source:         int(req.Source),
		Target:         int(req.Target),
		Goods:          req.Goods,
		Type:           int(req.Type),
		ValidStartTime: req.ValidStart.In(c.location).Format(coupon.WireTimeLayout),
		ValidEndTime:   req.ValidEnd.In(c.location).Format(coupon.WireTimeLayout),
		Stock:          req.Stock,
		ReceiveRule:    req.ReceiveRule,
		ConsumeRule:    req.ConsumeRule,
	})
	if err != nil {
		return nil, fmt.Errorf("create template: encode body: %w", err)
	}

	res := &Result[json.RawMessage]{op: "create_template"}
	err = c.sendJSON(ctx, request{
		op:          res.op,
		method:      http.MethodPost,
		path:        pathCreateTemplate,
		body:        bytes.NewReader(body),
		contentType: "application/json",
	}, res)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// PageTemplates runs the paged, filtered template query.
func (c *Client) PageTemplates(ctx context.Context, q coupon.QueryParams) (*PageResult[coupon.Template], error) {
	res := &PageResult[coupon.Template]{op: "page_templates"}
	err := c.sendJSON(ctx, request{
		op:     res.op,
		method: http.MethodGet,
		path:   pathPageTemplates,
		query:  q.Values(),
	}, res)
	if err != nil {
		return nil, err
	}
	for i := range res.Data {
		res.Data[i].Localize(c.location)
	}
	return res, nil
}

// GetTemplate fetches the full detail of one template.
func (c *Client) GetTemplate(ctx context.Context, id coupon.TemplateID) (*Result[*coupon.Template], error) {
	res := &Result[*coupon.Template]{op: "get_template"}
	err := c.sendJSON(ctx, request{
		op:     res.op,
		method: http.MethodGet,
		path:   pathQueryTemplate,
		query:  url.Values{"couponTemplateId": {id.String()}},
	}, res)
	if err != nil {
		return nil, err
	}
	if res.Data != nil {
		res.Data.Localize(c.location)
	}
	return res, nil
}

// TerminateTemplate ends a template. There is no reverse operation.
func (c *Client) TerminateTemplate(ctx context.Context, id coupon.TemplateID) (*Result[json.RawMessage], error) {
	res := &Result[json.RawMessage]{op: "terminate_template"}
	err := c.sendJSON(ctx, request{
		op:     res.op,
		method: http.MethodPost,
		path:   pathTerminateTemplate,
		query:  url.Values{"couponTemplateId": {id.String()}},
	}, res)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// IncreaseStock adds amount to the remaining stock of a template.
func (c *Client) IncreaseStock(ctx context.Context, id coupon.TemplateID, amount int64) (*Result[json.RawMessage], error) {
	res := &Result[json.RawMessage]{op: "increase_stock"}
	err := c.sendJSON(ctx, request{
		op:     res.op,
		method: http.MethodPost,
		path:   pathIncreaseStock,
		query: url.Values{
			"couponTemplateId": {id.String()},
			"stock":            {strconv.FormatInt(amount, 10)},
		},
	}, res)
	if err != nil {
		return nil, err
	}
	return res, nil
}
