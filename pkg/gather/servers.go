package gather

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/burrow/pkg/steps"
	"github.com/cuemby/burrow/pkg/transport"
	"github.com/cuemby/burrow/pkg/types"
)

// DefaultBatchSize is the page size used when listing servers.
const DefaultBatchSize = 100

type serverDetailPage struct {
	Servers []novaServerJSON `json:"servers"`
}

type novaServerJSON struct {
	ID        string                   `json:"id"`
	Status    string                   `json:"status"`
	Created   time.Time                `json:"created"`
	Addresses map[string][]novaAddress `json:"addresses"`
	Metadata  map[string]string        `json:"metadata"`
}

type novaAddress struct {
	Addr    string `json:"addr"`
	Version int    `json:"version"`
}

// toNovaServer builds the observed server value. A server carrying the
// draining metadata tag is reported as DRAINING regardless of its Nova
// status.
func (s novaServerJSON) toNovaServer() types.NovaServer {
	state := types.ServerState(s.Status)
	if _, ok := s.Metadata[types.MetadataDraining]; ok {
		state = types.ServerStateDraining
	}

	var addr string
	for _, a := range s.Addresses["private"] {
		if a.Version == 4 || a.Version == 0 {
			addr = a.Addr
			break
		}
	}

	return types.NovaServer{
		ID:                s.ID,
		State:             state,
		Created:           s.Created,
		ServiceNetAddress: addr,
		Metadata:          s.Metadata,
	}
}

// AllServerDetails fetches every server visible to the tenant, paginating
// with Nova's marker scheme: each page after the first is requested with
// the previous page's last server id as marker, and a short page ends the
// listing. Pages are concatenated in order; each page fetch carries its own
// retry budget.
func AllServerDetails(ctx context.Context, rq transport.Requester, batchSize int) ([]types.NovaServer, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var servers []types.NovaServer
	marker := ""
	for {
		path := fmt.Sprintf("servers/detail?limit=%d", batchSize)
		if marker != "" {
			path += "&marker=" + marker
		}

		var page serverDetailPage
		if err := transport.GetJSON(ctx, rq, steps.ServiceCompute, path, &page); err != nil {
			return nil, fmt.Errorf("failed to list servers: %w", err)
		}

		for _, s := range page.Servers {
			servers = append(servers, s.toNovaServer())
		}

		if len(page.Servers) < batchSize {
			return servers, nil
		}
		marker = page.Servers[len(page.Servers)-1].ID
	}
}

// ScalingGroupServers fetches all servers and groups the ones that belong
// to a scaling group by group id. Servers without the group metadata tag
// are discarded; predicate, when non-nil, filters the rest. Ordering within
// a group is not guaranteed.
func ScalingGroupServers(ctx context.Context, rq transport.Requester, predicate func(types.NovaServer) bool) (map[string][]types.NovaServer, error) {
	servers, err := AllServerDetails(ctx, rq, DefaultBatchSize)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]types.NovaServer)
	for _, s := range servers {
		groupID, ok := s.Metadata[types.MetadataGroupID]
		if !ok {
			continue
		}
		if predicate != nil && !predicate(s) {
			continue
		}
		grouped[groupID] = append(grouped[groupID], s)
	}
	return grouped, nil
}
