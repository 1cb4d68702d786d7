package handlers

import (
	"errors"
	"fmt"

	"github.com/anjiri1684/medical_consult/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

// PaymentSocketHandler lets a client wait for the payment confirmation of one
// reference id. The first frame must be {"type":"auth","token":"<jwt>"}.
//
// Any authenticated user may subscribe to any reference id; ownership of the
// referenced consultation is not checked. A notice carries only the reference,
// payment type, amount and a status message, never the prescription or
// gateway ids.
type PaymentSocketHandler struct {
	hub    *websocket.Hub
	secret []byte
	log    *zap.Logger
}

func NewPaymentSocketHandler(hub *websocket.Hub, jwtSecret string, log *zap.Logger) *PaymentSocketHandler {
	return &PaymentSocketHandler{hub: hub, secret: []byte(jwtSecret), log: log.Named("ws")}
}

type authMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

func (h *PaymentSocketHandler) Serve(c *websocketcontrib.Conn) {
	defer c.Close()
	referenceID := c.Params("referenceId")

	var auth authMessage
	if err := c.ReadJSON(&auth); err != nil || auth.Type != "auth" {
		h.log.Debug("websocket auth failed: missing auth message", zap.Error(err))
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		return
	}
	claims, err := h.parseToken(auth.Token)
	if err != nil {
		h.log.Debug("websocket auth failed: invalid token", zap.Error(err))
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		return
	}

	if err := c.WriteJSON(fiber.Map{"type": "subscribed", "referenceId": referenceID}); err != nil {
		return
	}
	unregister := h.hub.Register(referenceID, c)
	defer unregister()

	userID, _ := claims["user_id"].(string)
	h.log.Debug("waiting for payment confirmation", zap.String("reference_id", referenceID), zap.String("user_id", userID))

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if !websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure) {
				h.log.Debug("websocket read error", zap.String("reference_id", referenceID), zap.Error(err))
			}
			return
		}
	}
}

func (h *PaymentSocketHandler) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return h.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
