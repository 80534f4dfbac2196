package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"welfarehub/internal/welfare/models"
)

// LocalSource reads the regional (local government) welfare service list.
type LocalSource struct {
	id     string
	cfg    ClientConfig
	client *http.Client
}

func NewLocalSource(id string, cfg ClientConfig) *LocalSource {
	return &LocalSource{id: id, cfg: cfg, client: newHTTPClient(cfg)}
}

func (s *LocalSource) ID() string                 { return s.id }
func (s *LocalSource) Scope() models.ServiceScope { return models.ScopeLocal }

type localItem struct {
	ServID       string `json:"servId"`
	ServNm       string `json:"servNm"`
	ServDgst     string `json:"servDgst"`
	CtpvNm       string `json:"ctpvNm"`
	SggNm        string `json:"sggNm"`
	BizChrDeptNm string `json:"bizChrDeptNm"`
	LifeNmArray  string `json:"lifeNmArray"`
	TrgterArray  string `json:"trgterIndvdlNmArray"`
	IntrsThema   string `json:"intrsThemaNmArray"`
	SprtCycNm    string `json:"sprtCycNm"`
	SrvPvsnNm    string `json:"srvPvsnNm"`
	AplyMtdNm    string `json:"aplyMtdNm"`
	ServDtlLink  string `json:"servDtlLink"`
}

func (s *LocalSource) FetchPage(ctx context.Context, req PageRequest) (*Page, error) {
	params := url.Values{}
	params.Set("pageNo", strconv.Itoa(req.PageNo))
	params.Set("numOfRows", strconv.Itoa(req.PageSize))
	if req.RegionCode != "" {
		params.Set("ctpvNm", req.RegionCode)
	}
	if req.SubRegionCode != "" {
		params.Set("sggNm", req.SubRegionCode)
	}

	env, items, err := fetch(ctx, s.client, s.cfg, s.id, params)
	if err != nil {
		return nil, err
	}

	page := &Page{TotalCount: int(env.Response.Body.TotalCount)}
	for _, raw := range items {
		var it localItem
		if err := json.Unmarshal(raw, &it); err != nil {
			page.Dropped++
			continue
		}
		// The region filter falls back to the request when the row omits it.
		if it.CtpvNm == "" {
			it.CtpvNm = req.RegionCode
		}
		rec, ok := it.toRecord()
		if !ok {
			page.Dropped++
			continue
		}
		page.Records = append(page.Records, rec)
	}
	page.HasMore = hasMore(env, req, len(items))
	return page, nil
}

func (it localItem) toRecord() (*models.BenefitRecord, bool) {
	return buildRecord(rawRecord{
		sourceID:    it.ServID,
		name:        it.ServNm,
		description: it.ServDgst,
		scope:       models.ScopeLocal,
		region:      it.CtpvNm,
		subRegion:   it.SggNm,
		lifeArray:   it.LifeNmArray,
		targets:     it.TrgterArray,
		themes:      it.IntrsThema,
		provision:   it.SrvPvsnNm,
		department:  it.BizChrDeptNm,
		detailURL:   it.ServDtlLink,
		method:      it.AplyMtdNm,
	})
}
