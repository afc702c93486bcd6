package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"FlightFare/internal/domain/models"
	"FlightFare/internal/services/features"
	xhttp "FlightFare/pkg/http"
	xlogger "FlightFare/pkg/logger"
	"FlightFare/pkg/util"
)

const (
	wsReadWait  = 10 * time.Second
	wsWriteWait = 5 * time.Second
	wsMaxBody   = 64 << 10
)

// StreamTrend upgrades to a websocket, reads one trend request and streams every point as it is computed.
// The stream ends with {"status":"success"} or a single error envelope.
func (h *FaresEchoHandler) StreamTrend(c echo.Context) error {
	start := time.Now()
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	status := http.StatusOK
	defer func() { h.api.Observe("ws_predict_trend", status, time.Since(start)) }()

	conn.SetReadLimit(wsMaxBody)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadWait))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		h.logger.Debug("websocket read failed", xlogger.Error(err))
		return nil
	}

	write := func(v interface{}) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(v)
	}

	raw, err := features.DecodeBytes(msg)
	if err == nil {
		err = h.fares.StreamTrend(c.Request().Context(), raw, models.SourceWebsocket, requestID(c),
			func(series models.Series, p models.ForecastPoint) error {
				h.api.Frame()
				return write(models.TrendFrame{
					Series: series,
					Date:   util.FormatDate(p.Date),
					Price:  models.RoundPrice(p.Price),
				})
			})
	}

	if err != nil {
		status = http.StatusInternalServerError
		if errors.Is(err, features.ErrInvalidRequest) {
			status = http.StatusBadRequest
		} else {
			h.logger.Error("ws_predict_trend usecase error", xlogger.Error(err))
		}
		_ = write(xhttp.ErrorBody{Error: err.Error(), Status: xhttp.StatusError})
	} else {
		_ = write(map[string]string{"status": xhttp.StatusSuccess})
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(wsWriteWait))
	return nil
}
