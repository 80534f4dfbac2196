package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"welfarehub/internal/welfare/models"
)

// CentralSource reads the national welfare service list.
type CentralSource struct {
	id     string
	cfg    ClientConfig
	client *http.Client
}

func NewCentralSource(id string, cfg ClientConfig) *CentralSource {
	return &CentralSource{id: id, cfg: cfg, client: newHTTPClient(cfg)}
}

func (s *CentralSource) ID() string                 { return s.id }
func (s *CentralSource) Scope() models.ServiceScope { return models.ScopeCentral }

type centralItem struct {
	ServID      string `json:"servId"`
	ServNm      string `json:"servNm"`
	ServDgst    string `json:"servDgst"`
	JurMnofNm   string `json:"jurMnofNm"`
	JurOrgNm    string `json:"jurOrgNm"`
	LifeArray   string `json:"lifeArray"`
	TrgterArray string `json:"trgterIndvdlArray"`
	IntrsThema  string `json:"intrsThemaArray"`
	SrvPvsnNm   string `json:"srvPvsnNm"`
	SprtCycNm   string `json:"sprtCycNm"`
	RprsCtadr   string `json:"rprsCtadr"`
	ServDtlLink string `json:"servDtlLink"`
	OnapPsbltYn string `json:"onapPsbltYn"`
}

func (s *CentralSource) FetchPage(ctx context.Context, req PageRequest) (*Page, error) {
	params := url.Values{}
	params.Set("callTp", "L")
	params.Set("srchKeyCode", "001")
	params.Set("pageNo", strconv.Itoa(req.PageNo))
	params.Set("numOfRows", strconv.Itoa(req.PageSize))

	env, items, err := fetch(ctx, s.client, s.cfg, s.id, params)
	if err != nil {
		return nil, err
	}

	page := &Page{TotalCount: int(env.Response.Body.TotalCount)}
	for _, raw := range items {
		var it centralItem
		if err := json.Unmarshal(raw, &it); err != nil {
			page.Dropped++
			continue
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

func (it centralItem) toRecord() (*models.BenefitRecord, bool) {
	method := "방문"
	if it.OnapPsbltYn == "Y" {
		method = "온라인 신청 가능"
	}
	return buildRecord(rawRecord{
		sourceID:    it.ServID,
		name:        it.ServNm,
		description: it.ServDgst,
		scope:       models.ScopeCentral,
		lifeArray:   it.LifeArray,
		targets:     it.TrgterArray,
		themes:      it.IntrsThema,
		provision:   it.SrvPvsnNm,
		department:  firstNonEmpty(it.JurMnofNm, it.JurOrgNm),
		contact:     it.RprsCtadr,
		detailURL:   it.ServDtlLink,
		method:      method,
	})
}
