package smtp_client

import (
	"crypto/tls"
	"errors"
	"log/slog"
	"net/smtp"
	"strconv"
	"sync"
	"time"

	"github.com/knadh/smtppool"
)

type SmtpClients struct {
	mu             sync.Mutex
	servers        SmtpServerList
	connectionPool []*smtppool.Pool
	// connected[i] is the server behind connectionPool[i]
	connected []SmtpServer
	counter   uint64
}

func NewSmtpClients(config SmtpServerList) (*SmtpClients, error) {
	if len(config.Servers) < 1 {
		return nil, errors.New("no smtp servers defined")
	}
	pools, connected := initConnectionPool(config)
	if len(pools) < 1 {
		return nil, errors.New("no smtp server connection in the pool")
	}

	sc := &SmtpClients{
		servers:        config,
		counter:        0,
		connectionPool: pools,
		connected:      connected,
	}
	return sc, nil
}

func initConnectionPool(serverList SmtpServerList) ([]*smtppool.Pool, []SmtpServer) {
	connectionPools := []*smtppool.Pool{}
	connected := []SmtpServer{}
	for _, server := range serverList.Servers {
		pool, err := connectToPool(server)
		if err != nil {
			slog.Error("error setting up connection pool", slog.String("error", err.Error()), slog.String("server", server.Address()))
			continue
		}
		connectionPools = append(connectionPools, pool)
		connected = append(connected, server)
	}
	return connectionPools, connected
}

func connectToPool(server SmtpServer) (*smtppool.Pool, error) {
	auth := smtp.PlainAuth(
		"",
		server.AuthData.Username,
		server.AuthData.Password,
		server.Host,
	)
	if server.AuthData.Username == "" && server.AuthData.Password == "" {
		auth = nil
	}

	tlsOpts := &tls.Config{
		InsecureSkipVerify: server.InsecureSkipVerify,
		ServerName:         server.Host,
	}
	port, err := strconv.Atoi(server.Port)
	if err != nil {
		return nil, err
	}

	return smtppool.New(smtppool.Opt{
		Host:            server.Host,
		Port:            port,
		MaxConns:        server.Connections,
		IdleTimeout:     time.Duration(server.SendTimeout) * time.Second,
		PoolWaitTimeout: time.Duration(server.SendTimeout) * time.Second,
		TLSConfig:       tlsOpts,
		Auth:            auth,
	})
}

// Close shuts down every connection pool.
func (sc *SmtpClients) Close() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for _, p := range sc.connectionPool {
		p.Close()
	}
}
