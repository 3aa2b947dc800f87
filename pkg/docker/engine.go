package docker

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/go-connections/nat"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/pkg/errors"
)

var runningContainers = filters.Arg("status", "running")

type (
	// DockerClient defines the interface for Docker operations used by the Engine.
	// This interface is satisfied by *client.Client and allows for easy mocking in tests.
	DockerClient interface {
		ImagePull(context.Context, string, image.PullOptions) (io.ReadCloser, error)
		ContainerCreate(context.Context, *container.Config, *container.HostConfig, *network.NetworkingConfig, *v1.Platform, string) (container.CreateResponse, error)
		ContainerStart(context.Context, string, container.StartOptions) error
		ContainerList(context.Context, container.ListOptions) ([]container.Summary, error)
		ContainerStop(context.Context, string, container.StopOptions) error
		ContainerRemove(context.Context, string, container.RemoveOptions) error
		ContainerInspect(context.Context, string) (container.InspectResponse, error)
	}

	// Engine manages long-lived containers, unlike Container which is tied to
	// the lifetime of the process that started it. The dev command uses it to
	// run a local Postgres that survives across steward invocations.
	Engine struct {
		client DockerClient
	}

	// ContainerInfo is a summary of an existing container.
	ContainerInfo struct {
		ID     string
		Names  []string
		Image  string
		State  string
		Status string
	}

	// ContainerOptions describes the container Engine.Start creates.
	ContainerOptions struct {
		Name    string
		Image   string
		Env     map[string]string
		Ports   map[int]int
		Volumes []ContainerVolume
	}

	// ContainerVolume is a host directory mounted into the container. The
	// yaml tags let project configuration declare mounts, e.g. seeding
	// /docker-entrypoint-initdb.d with init scripts.
	ContainerVolume struct {
		HostPath      string `yaml:"hostPath"`
		ContainerPath string `yaml:"containerPath"`
		ReadOnly      bool   `yaml:"readOnly"`
	}
)

// NewEngine creates a new Docker Engine instance for managing Docker operations.
// The Docker client should be initialized and connected before passing to this constructor.
//
// Example:
//
//	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer cli.Close()
//
//	engine := docker.NewEngine(cli)
//
//	if err := engine.Pull(ctx, "postgres:16-alpine"); err != nil {
//		log.Fatal(err)
//	}
func NewEngine(cl DockerClient) *Engine {
	return &Engine{
		client: cl,
	}
}

// Pull fetches an image, streaming progress to stdout.
func (e *Engine) Pull(ctx context.Context, img string) error {
	out, err := e.client.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return errors.Wrapf(err, "failed to pull image: %s", img)
	}

	defer func() { _ = out.Close() }()
	_, _ = io.Copy(os.Stdout, out)
	return nil
}

// Start creates and starts a container, returning its ID.
func (e *Engine) Start(ctx context.Context, opts ContainerOptions) (string, error) {
	env := make([]string, 0, len(opts.Env))
	for key, value := range opts.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}

	exposedPorts := make(nat.PortSet)
	portBindings := make(nat.PortMap)
	for hostPort, containerPort := range opts.Ports {
		port := nat.Port(fmt.Sprintf("%d/tcp", containerPort))
		exposedPorts[port] = struct{}{}

		// A zero host port lets Docker assign a random one
		hostPortStr := ""
		if hostPort > 0 {
			hostPortStr = strconv.Itoa(hostPort)
		}

		portBindings[port] = []nat.PortBinding{
			{
				HostPort: hostPortStr,
			},
		}
	}

	binds := make([]string, len(opts.Volumes))
	for i, volume := range opts.Volumes {
		bind := fmt.Sprintf("%s:%s", volume.HostPath, volume.ContainerPath)
		if volume.ReadOnly {
			bind += ":ro"
		}
		binds[i] = bind
	}

	resp, err := e.client.ContainerCreate(
		ctx,
		&container.Config{
			Image:        opts.Image,
			Env:          env,
			ExposedPorts: exposedPorts,
		},
		&container.HostConfig{
			PortBindings: portBindings,
			Binds:        binds,
		},
		nil,
		nil,
		opts.Name,
	)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create container: %s", opts.Name)
	}

	if err := e.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", errors.Wrapf(err, "failed to start container: %s", opts.Name)
	}

	return resp.ID, nil
}

// List returns all running containers.
func (e *Engine) List(ctx context.Context) ([]*ContainerInfo, error) {
	list, err := e.client.ContainerList(ctx, container.ListOptions{
		Filters: filters.NewArgs(runningContainers),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list running containers")
	}

	res := make([]*ContainerInfo, len(list))
	for i, c := range list {
		// Strip the leading "/" Docker prepends to names
		names := make([]string, len(c.Names))
		for j, name := range c.Names {
			names[j] = strings.TrimPrefix(name, "/")
		}

		res[i] = &ContainerInfo{
			ID:     c.ID,
			Names:  names,
			Image:  c.Image,
			State:  c.State,
			Status: c.Status,
		}
	}

	return res, nil
}

// Stop stops and removes a container by name or ID.
func (e *Engine) Stop(ctx context.Context, nameOrID string) error {
	timeout := 30
	if err := e.client.ContainerStop(ctx, nameOrID, container.StopOptions{
		Timeout: &timeout,
	}); err != nil {
		return errors.Wrapf(err, "failed to stop container: %s", nameOrID)
	}

	if err := e.client.ContainerRemove(ctx, nameOrID, container.RemoveOptions{
		Force: true,
	}); err != nil {
		return errors.Wrapf(err, "failed to remove container: %s", nameOrID)
	}

	return nil
}

// Get returns details for a single container by name or ID.
func (e *Engine) Get(ctx context.Context, nameOrID string) (*ContainerInfo, error) {
	inspect, err := e.client.ContainerInspect(ctx, nameOrID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to inspect container: %s", nameOrID)
	}

	var names []string
	if inspect.Name != "" {
		names = []string{strings.TrimPrefix(inspect.Name, "/")}
	}

	return &ContainerInfo{
		ID:     inspect.ID,
		Names:  names,
		Image:  inspect.Config.Image,
		State:  inspect.State.Status,
		Status: inspect.State.Status,
	}, nil
}
