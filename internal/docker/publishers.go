package docker

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"

	"github.com/mmr-tortoise/portblock/internal/model"
)

// ListPublishers returns the containers (running or not) that publish host
// port hostPort. The daemon filters with publish=<port>; the result is
// filtered again locally because older daemons ignore unknown filters.
func ListPublishers(ctx context.Context, cli *Client, hostPort int) ([]model.ContainerPublisher, error) {
	filterArgs := filters.NewArgs(
		filters.Arg("publish", strconv.Itoa(hostPort)),
	)

	containers, err := cli.inner.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	var result []model.ContainerPublisher
	for _, c := range containers {
		result = append(result, summaryToPublishers(c, hostPort)...)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ContainerName != result[j].ContainerName {
			return result[i].ContainerName < result[j].ContainerName
		}
		return result[i].HostIP < result[j].HostIP
	})
	return result, nil
}

// summaryToPublishers maps the port bindings of one container that match
// hostPort. A container bound on both 0.0.0.0 and :: yields two entries.
func summaryToPublishers(c container.Summary, hostPort int) []model.ContainerPublisher {
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	var out []model.ContainerPublisher
	for _, p := range c.Ports {
		if int(p.PublicPort) != hostPort {
			continue
		}
		out = append(out, model.ContainerPublisher{
			ContainerID:   c.ID,
			ContainerName: name,
			Image:         c.Image,
			State:         string(c.State),
			HostIP:        p.IP,
			PrivatePort:   int(p.PrivatePort),
			PublicPort:    int(p.PublicPort),
			Protocol:      p.Type,
		})
	}
	return out
}
