package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/dmitrijs2005/depotkeeper/internal/client/client"
	"github.com/dmitrijs2005/depotkeeper/internal/common"
	"github.com/dmitrijs2005/depotkeeper/internal/logging"
	"github.com/dmitrijs2005/depotkeeper/internal/ticket"
)

// DefaultRedistributables are the shared runtime installer depots
// (Steamworks Common Redistributables) that carry no game content.
var DefaultRedistributables = NewIDSet(
	228981, 228982, 228983, 228984, 228985, 228986, 228987,
	228988, 228989, 228990, 229000, 229001, 229002, 229003,
	229004, 229005, 229006, 229007, 229010, 229011, 229012,
	229020, 229030, 229031, 229032, 229033,
)

func NewIDSet(ids ...uint32) map[uint32]struct{} {
	s := make(map[uint32]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// DepotResult is the outcome for one depot of a bulk build. Exactly one of
// Ticket and Err is set for content depots; redistributables carry neither.
type DepotResult struct {
	DepotID         uint32
	Name            string
	Redistributable bool
	Ticket          *ticket.Ticket
	Err             error
}

type BulkOutcome struct {
	Bundle  *ticket.Bundle
	Results []DepotResult
}

func (o *BulkOutcome) Tickets() []*ticket.Ticket {
	var out []*ticket.Ticket
	for _, r := range o.Results {
		if r.Ticket != nil {
			out = append(out, r.Ticket)
		}
	}
	return out
}

func (o *BulkOutcome) Failed() []DepotResult {
	var out []DepotResult
	for _, r := range o.Results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// BulkTicketBuilder builds tickets for every content depot of an app.
type BulkTicketBuilder struct {
	session client.Session
	dir     client.Directory
	builder *TicketBuilder
	logger  logging.Logger
}

func NewBulkTicketBuilder(session client.Session, dir client.Directory, builder *TicketBuilder, logger logging.Logger) *BulkTicketBuilder {
	return &BulkTicketBuilder{session: session, dir: dir, builder: builder, logger: logger}
}

type depotInfo struct {
	id        uint32
	name      string
	config    map[string]any
	manifests map[string]any
}

// BuildAll validates the product info of appID up front and fails with
// common.ErrInvalidProductInfo when it is malformed. After that, depots are
// processed one by one; a failing depot is recorded in its DepotResult and
// does not stop the others.
func (b *BulkTicketBuilder) BuildAll(ctx context.Context, appID uint32, redistributables map[uint32]struct{}) (*BulkOutcome, error) {
	if !b.session.IsLoggedOn() {
		return nil, fmt.Errorf("bulk build %d: %w", appID, common.ErrUnauthenticated)
	}

	info, err := b.dir.ProductInfo(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("product info for %d: %w", appID, err)
	}

	app, depots, err := parseProductInfo(appID, info)
	if err != nil {
		return nil, err
	}

	bundle := ticket.NewBundle(appID, str(app, "name"), str(app, "oslist"), str(app, "osarch"))
	out := &BulkOutcome{Bundle: bundle}

	for _, d := range depots {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		cfg := ticket.DepotConfig{
			OSArch:      strOr(d.config, "osarch", "0"),
			OSList:      strOr(d.config, "oslist", "Universal"),
			OptionalDLC: str(d.config, "optionaldlc"),
		}

		if _, ok := redistributables[d.id]; ok {
			bundle.AddRedistributable(d.id, d.name, cfg)
			out.Results = append(out.Results, DepotResult{DepotID: d.id, Name: d.name, Redistributable: true})
			b.logger.Debug(ctx, "redistributable depot recorded", "app_id", appID, "depot_id", d.id)
			continue
		}

		res := DepotResult{DepotID: d.id, Name: d.name}
		public, _ := d.manifests["public"].(map[string]any)
		gid := num(public, "gid")
		if gid == 0 {
			res.Err = fmt.Errorf("depot %d: no public manifest: %w", d.id, common.ErrNotFound)
		} else {
			id := ticket.Identity{AppID: appID, DepotID: d.id, ManifestID: gid}
			res.Ticket, res.Err = b.builder.Make(ctx, id)
			if res.Err == nil {
				bundle.AddTicket(res.Ticket, d.name, cfg, num(public, "download"), num(public, "size"))
			}
		}

		if res.Err != nil {
			b.logger.Warn(ctx, "depot skipped", "app_id", appID, "depot_id", d.id, "error", res.Err)
			if errors.Is(res.Err, common.ErrUnauthenticated) {
				out.Results = append(out.Results, res)
				return out, res.Err
			}
		}
		out.Results = append(out.Results, res)
	}

	b.logger.Info(ctx, "bulk build finished", "app_id", appID,
		"depots", len(out.Results), "tickets", len(out.Tickets()), "failed", len(out.Failed()))
	return out, nil
}

// parseProductInfo extracts the app node and its numeric depots, sorted by id.
func parseProductInfo(appID uint32, info map[string]any) (map[string]any, []depotInfo, error) {
	apps, ok := info["apps"].(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("%w: response has no apps mapping", common.ErrInvalidProductInfo)
	}
	appNode, ok := apps[strconv.FormatUint(uint64(appID), 10)].(map[string]any)
	if !ok || len(appNode) == 0 {
		return nil, nil, fmt.Errorf("%w: no data found for app %d", common.ErrInvalidProductInfo, appID)
	}

	app, _ := appNode["common"].(map[string]any)

	rawDepots, present := appNode["depots"]
	depotsNode, ok := rawDepots.(map[string]any)
	if present && !ok {
		return nil, nil, fmt.Errorf("%w: app %d depots is %T, want mapping", common.ErrInvalidProductInfo, appID, rawDepots)
	}

	var depots []depotInfo
	for key, raw := range depotsNode {
		id, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			continue
		}
		node, ok := raw.(map[string]any)
		if !ok {
			return nil, nil, fmt.Errorf("%w: depot %s is %T, want mapping", common.ErrInvalidProductInfo, key, raw)
		}

		d := depotInfo{id: uint32(id), name: str(node, "name")}
		if d.config, err = mapping(node, "config"); err != nil {
			return nil, nil, fmt.Errorf("depot %s: %w", key, err)
		}
		if d.manifests, err = mapping(node, "manifests"); err != nil {
			return nil, nil, fmt.Errorf("depot %s: %w", key, err)
		}
		depots = append(depots, d)
	}
	sort.Slice(depots, func(i, j int) bool { return depots[i].id < depots[j].id })
	return app, depots, nil
}

// mapping returns node[key] as a map; an absent key yields an empty map.
func mapping(node map[string]any, key string) (map[string]any, error) {
	v, ok := node[key]
	if !ok || v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T, want mapping", common.ErrInvalidProductInfo, key, v)
	}
	return m, nil
}

func str(m map[string]any, key string) string {
	return strOr(m, key, "")
}

func strOr(m map[string]any, key, def string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return def
	}
}

// num reads a non-negative integer that upstream may send as string or number.
func num(m map[string]any, key string) uint64 {
	switch v := m[key].(type) {
	case string:
		n, _ := strconv.ParseUint(v, 10, 64)
		return n
	case float64:
		if v < 0 {
			return 0
		}
		return uint64(v)
	default:
		return 0
	}
}
