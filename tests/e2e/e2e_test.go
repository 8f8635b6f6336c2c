//go:build integration

package e2e

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"gastropos/internal/config"
	"gastropos/internal/infra"
	"gastropos/internal/model"
	"gastropos/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	db     *gorm.DB
	token  string // admin JWT
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("gastropos_test"),
		tcPostgres.WithUsername("gastropos"),
		tcPostgres.WithPassword("gastropos"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		WorkerPoolSize:     1,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		ComandaStoragePath: t.TempDir(),
	}

	// NewDatabase runs the migrations.
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("gastropos2026"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.Usuario{
		Nombre:       "Admin E2E",
		Email:        "admin@e2e.test",
		PasswordHash: string(hash),
		Rol:          model.RolAdmin,
		Habilitado:   true,
	}).Error)

	srv := httptest.NewServer(router.New(cfg, db, rdb))
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, db: db, token: login(t, srv, "admin@e2e.test", "gastropos2026")}
}

func login(t *testing.T, srv *httptest.Server, email, password string) string {
	t.Helper()
	resp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"email": email, "password": password}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Token string `json:"token"`
	}
	decodeJSON(t, resp, &body)
	require.NotEmpty(t, body.Token)
	return body.Token
}

// crearProductoConStock creates a product and audits its initial stock in.
func crearProductoConStock(t *testing.T, env *testEnv, nombre string, precio string, stock int) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/productos",
		jsonBody(t, map[string]any{
			"nombre":          nombre,
			"costo_vigente":   "800",
			"precio_vigente":  precio,
			"stock_seguridad": 2,
		}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var prod struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &prod)

	reempResp := do(t, env.server, "POST", "/v1/reemplazos",
		jsonBody(t, map[string]any{
			"lineas": []map[string]any{
				{"producto_id": prod.ID, "stock_nuevo": stock},
			},
		}), env.token)
	require.Equal(t, http.StatusCreated, reempResp.StatusCode)
	reempResp.Body.Close()
	return prod.ID
}

func stockDe(t *testing.T, env *testEnv, productoID string) int {
	t.Helper()
	resp := do(t, env.server, "GET", "/v1/productos/"+productoID, nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var prod struct {
		Stock int `json:"stock"`
	}
	decodeJSON(t, resp, &prod)
	return prod.Stock
}

// ── Tests ────────────────────────────────────────────────────────────────────

// Counter sale: register, check frozen total, void, watch stock round-trip.
func TestE2E_CicloVentaAlmacen(t *testing.T) {
	env := setupTestEnv(t)
	productoID := crearProductoConStock(t, env, "Gaseosa 500ml", "1500", 20)
	require.Equal(t, 20, stockDe(t, env, productoID))

	ventaResp := do(t, env.server, "POST", "/v1/ventas",
		jsonBody(t, map[string]any{
			"lineas": []map[string]any{
				{"producto_id": productoID, "cantidad": 3},
			},
		}), env.token)
	require.Equal(t, http.StatusCreated, ventaResp.StatusCode)
	var venta struct {
		ID      string `json:"id"`
		IDTexto string `json:"id_texto"`
		Tipo    string `json:"tipo"`
		Total   string `json:"total"`
	}
	decodeJSON(t, ventaResp, &venta)
	assert.Equal(t, "V00001", venta.IDTexto)
	assert.Equal(t, "almacen", venta.Tipo)
	assert.Equal(t, "4500", venta.Total)
	assert.Equal(t, 17, stockDe(t, env, productoID))

	anularResp := do(t, env.server, "DELETE", "/v1/ventas/"+venta.ID, nil, env.token)
	require.Equal(t, http.StatusOK, anularResp.StatusCode)
	var anulada struct {
		Anulado *string `json:"anulado"`
	}
	decodeJSON(t, anularResp, &anulada)
	assert.NotNil(t, anulada.Anulado)
	assert.Equal(t, 20, stockDe(t, env, productoID))

	// Default listing hides the voided sale.
	listResp := do(t, env.server, "GET", "/v1/ventas", nil, env.token)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var list struct {
		Total int64 `json:"total"`
	}
	decodeJSON(t, listResp, &list)
	assert.Zero(t, list.Total)
}

// Online order: open, close, mark available (materializes the sale), deliver.
func TestE2E_CicloPedidoOnline(t *testing.T) {
	env := setupTestEnv(t)
	productoID := crearProductoConStock(t, env, "Empanada", "900", 12)

	regResp := do(t, env.server, "POST", "/v1/auth/registro",
		jsonBody(t, map[string]string{
			"nombre":   "Cliente E2E",
			"email":    "cliente@e2e.test",
			"password": "cliente-e2e-pass",
		}), "")
	require.Equal(t, http.StatusCreated, regResp.StatusCode)
	regResp.Body.Close()
	clienteToken := login(t, env.server, "cliente@e2e.test", "cliente-e2e-pass")

	guardarResp := do(t, env.server, "POST", "/v1/pedidos",
		jsonBody(t, map[string]any{
			"tipo": "retiro",
			"lineas": []map[string]any{
				{"producto_id": productoID, "cantidad": 4},
			},
		}), clienteToken)
	require.Equal(t, http.StatusOK, guardarResp.StatusCode)
	var guardado struct {
		Pedido struct {
			ID           string `json:"id"`
			IDTexto      string `json:"id_texto"`
			UltimoEstado string `json:"ultimo_estado"`
			Total        string `json:"total"`
		} `json:"pedido"`
		Eliminado bool `json:"eliminado"`
	}
	decodeJSON(t, guardarResp, &guardado)
	require.False(t, guardado.Eliminado)
	assert.Equal(t, "P00001", guardado.Pedido.IDTexto)
	assert.Equal(t, "abierto", guardado.Pedido.UltimoEstado)
	assert.Equal(t, "3600", guardado.Pedido.Total)
	assert.Equal(t, 8, stockDe(t, env, productoID), "open orders already hold their stock")

	pedidoID := guardado.Pedido.ID

	cerrarResp := do(t, env.server, "POST", "/v1/pedidos/"+pedidoID+"/cerrar", nil, clienteToken)
	require.Equal(t, http.StatusOK, cerrarResp.StatusCode)
	cerrarResp.Body.Close()

	// The customer cannot mark their own order available.
	dispResp := do(t, env.server, "POST", "/v1/pedidos/"+pedidoID+"/disponible", nil, clienteToken)
	require.Equal(t, http.StatusForbidden, dispResp.StatusCode)
	dispResp.Body.Close()

	dispResp = do(t, env.server, "POST", "/v1/pedidos/"+pedidoID+"/disponible", nil, env.token)
	require.Equal(t, http.StatusOK, dispResp.StatusCode)
	var disponible struct {
		UltimoEstado string  `json:"ultimo_estado"`
		VentaID      *string `json:"venta_id"`
	}
	decodeJSON(t, dispResp, &disponible)
	assert.Equal(t, "disponible", disponible.UltimoEstado)
	require.NotNil(t, disponible.VentaID, "availability materializes the online sale")

	// The materialized sale belongs to the customer and moved no extra stock.
	ventaResp := do(t, env.server, "GET", "/v1/ventas/"+*disponible.VentaID, nil, env.token)
	require.Equal(t, http.StatusOK, ventaResp.StatusCode)
	var venta struct {
		Tipo  string `json:"tipo"`
		Total string `json:"total"`
	}
	decodeJSON(t, ventaResp, &venta)
	assert.Equal(t, "online", venta.Tipo)
	assert.Equal(t, "3600", venta.Total)
	assert.Equal(t, 8, stockDe(t, env, productoID))

	entregarResp := do(t, env.server, "POST", "/v1/pedidos/"+pedidoID+"/entregar", nil, env.token)
	require.Equal(t, http.StatusOK, entregarResp.StatusCode)
	var recibido struct {
		UltimoEstado string `json:"ultimo_estado"`
	}
	decodeJSON(t, entregarResp, &recibido)
	assert.Equal(t, "recibido", recibido.UltimoEstado)
}

// Cancelling a closed order needs a reason and refunds everything.
func TestE2E_CancelarPedidoDevuelveStock(t *testing.T) {
	env := setupTestEnv(t)
	productoID := crearProductoConStock(t, env, "Milanesa", "3200", 10)

	guardarResp := do(t, env.server, "POST", "/v1/pedidos",
		jsonBody(t, map[string]any{
			"tipo": "retiro",
			"lineas": []map[string]any{
				{"producto_id": productoID, "cantidad": 2},
			},
		}), env.token)
	require.Equal(t, http.StatusOK, guardarResp.StatusCode)
	var guardado struct {
		Pedido struct {
			ID string `json:"id"`
		} `json:"pedido"`
	}
	decodeJSON(t, guardarResp, &guardado)
	pedidoID := guardado.Pedido.ID

	cerrarResp := do(t, env.server, "POST", "/v1/pedidos/"+pedidoID+"/cerrar", nil, env.token)
	require.Equal(t, http.StatusOK, cerrarResp.StatusCode)
	cerrarResp.Body.Close()

	// Closed orders demand a real reason.
	sinMotivo := do(t, env.server, "POST", "/v1/pedidos/"+pedidoID+"/cancelar",
		jsonBody(t, map[string]string{"motivo": "corto"}), env.token)
	require.Equal(t, http.StatusConflict, sinMotivo.StatusCode)
	sinMotivo.Body.Close()

	cancelarResp := do(t, env.server, "POST", "/v1/pedidos/"+pedidoID+"/cancelar",
		jsonBody(t, map[string]string{"motivo": "el cliente no vino a retirarlo"}), env.token)
	require.Equal(t, http.StatusOK, cancelarResp.StatusCode)
	var cancelado struct {
		UltimoEstado string `json:"ultimo_estado"`
	}
	decodeJSON(t, cancelarResp, &cancelado)
	assert.Equal(t, "cancelado", cancelado.UltimoEstado)
	assert.Equal(t, 10, stockDe(t, env, productoID))
}

// The public price endpoint serves kiosks without credentials.
func TestE2E_ConsultaPrecioPublica(t *testing.T) {
	env := setupTestEnv(t)
	productoID := crearProductoConStock(t, env, "Licuado", "2100", 5)

	resp := do(t, env.server, "GET", "/v1/productos/"+productoID+"/precio", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var precio struct {
		Nombre        string `json:"nombre"`
		PrecioVigente string `json:"precio_vigente"`
		Stock         int    `json:"stock"`
	}
	decodeJSON(t, resp, &precio)
	assert.Equal(t, "Licuado", precio.Nombre)
	assert.Equal(t, "2100", precio.PrecioVigente)
	assert.Equal(t, 5, precio.Stock)

	// Second hit comes from the Redis cache and must agree.
	resp = do(t, env.server, "GET", "/v1/productos/"+productoID+"/precio", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cacheado struct {
		PrecioVigente string `json:"precio_vigente"`
	}
	decodeJSON(t, resp, &cacheado)
	assert.Equal(t, precio.PrecioVigente, cacheado.PrecioVigente)
}

// Two counter sales race over the last unit. The row lock serializes the two
// reconciliations, so exactly one wins and the loser gets a clean rejection.
func TestE2E_VentasConcurrentesPorLaUltimaUnidad(t *testing.T) {
	env := setupTestEnv(t)
	productoID := crearProductoConStock(t, env, "Alfajor", "700", 1)

	codigos := make(chan int, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, err := json.Marshal(map[string]any{
				"lineas": []map[string]any{{"producto_id": productoID, "cantidad": 1}},
			})
			if err != nil {
				codigos <- 0
				return
			}
			req, err := http.NewRequest("POST", env.server.URL+"/v1/ventas", bytes.NewReader(body))
			if err != nil {
				codigos <- 0
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+env.token)
			resp, err := env.server.Client().Do(req)
			if err != nil {
				codigos <- 0
				return
			}
			resp.Body.Close()
			codigos <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(codigos)

	var creadas, rechazadas int
	for codigo := range codigos {
		switch codigo {
		case http.StatusCreated:
			creadas++
		case http.StatusBadRequest:
			rechazadas++
		}
	}
	assert.Equal(t, 1, creadas, "exactly one sale takes the last unit")
	assert.Equal(t, 1, rechazadas)
	assert.Equal(t, 0, stockDe(t, env, productoID))
}
