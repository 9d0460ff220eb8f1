package controller

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"swachhconnect/database"
	"swachhconnect/middlewares"
	"swachhconnect/models"
	"swachhconnect/utils"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func (h *Handler) setTokenCookie(c *gin.Context, token string, expires time.Time) {
	maxAge := 0
	if token == "" {
		maxAge = -1
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middlewares.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		Secure:   h.Settings.SecureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) issueToken(c *gin.Context, user *models.User) {
	token, err := utils.SignedToken(h.Settings.JWTSecret, utils.SignedDetails{
		UserID:    user.UserID,
		Email:     user.Email,
		Phone:     user.Phone,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	})
	if err != nil {
		log.WithError(err).Error("Error signing token")
		errorJSON(c, http.StatusInternalServerError, "Error signing token")
		return
	}
	h.setTokenCookie(c, token, h.now().Add(utils.TokenTTL))

	c.JSON(http.StatusOK, models.UserResponse{
		UserID:    user.UserID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      user.Role,
		Token:     token,
	})
}

// SendOTP starts a citizen phone login.
func (h *Handler) SendOTP(c *gin.Context) {
	var req models.OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid Request Body")
		return
	}
	if err := validate.Struct(req); err != nil {
		errorJSON(c, http.StatusBadRequest, "Please enter a valid phone number in international format")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if existing, err := h.Users.FindByPhone(ctx, req.Phone); err == nil && existing.Role != models.RoleCitizen {
		errorJSON(c, http.StatusForbidden, "Phone login is only available to citizens")
		return
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		log.WithError(err).Error("Error generating OTP")
		errorJSON(c, http.StatusInternalServerError, "Something went wrong")
		return
	}
	now := h.now()
	if err := h.Users.SetOTP(ctx, req.Phone, utils.HashSecret(code), now.Add(h.Settings.OTPExpiry), now); err != nil {
		log.WithError(err).Error("Error storing OTP")
		errorJSON(c, http.StatusInternalServerError, "Something went wrong")
		return
	}
	if err := h.SMS.SendCode(req.Phone, code); err != nil {
		log.WithError(err).Error("Error sending OTP")
		errorJSON(c, http.StatusBadGateway, "Failed to send OTP")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent"})
}

// VerifyOTP completes a citizen phone login and returns a session token.
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req models.OTPVerification
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid Request Body")
		return
	}
	if err := validate.Struct(req); err != nil {
		errorJSON(c, http.StatusBadRequest, "Validation Failed")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, err := h.Users.FindByPhone(ctx, req.Phone)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.WithError(err).Error("Error finding user")
		}
		errorJSON(c, http.StatusUnauthorized, "Invalid or expired code")
		return
	}
	now := h.now()
	if user.OTPHash == "" || now.After(user.OTPExpires) || !utils.SecretMatches(req.Code, user.OTPHash) {
		errorJSON(c, http.StatusUnauthorized, "Invalid or expired code")
		return
	}
	if err := h.Users.CompleteOTP(ctx, user.UserID, req.FirstName, req.LastName, now); err != nil {
		log.WithError(err).Error("Error clearing OTP")
		errorJSON(c, http.StatusInternalServerError, "Something went wrong")
		return
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	h.issueToken(c, user)
}

// RegisterStaff creates a municipal account; it needs the staff signup code.
func (h *Handler) RegisterStaff(c *gin.Context) {
	var reg models.StaffRegistration
	if err := c.ShouldBindJSON(&reg); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid Request Body")
		return
	}
	if err := validate.Struct(reg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation Failed", "details": err.Error()})
		return
	}
	if h.Settings.StaffSignupCode == "" ||
		subtle.ConstantTimeCompare([]byte(reg.SignupCode), []byte(h.Settings.StaffSignupCode)) != 1 {
		errorJSON(c, http.StatusForbidden, "Invalid signup code")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if _, err := h.Users.FindByEmail(ctx, reg.Email); err == nil {
		errorJSON(c, http.StatusBadRequest, "User already exist")
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		log.WithError(err).Error("Failed to check existing user")
		errorJSON(c, http.StatusInternalServerError, "Failed to check existing user")
		return
	}

	hashed, err := utils.HashPass(reg.Password)
	if err != nil {
		log.WithError(err).Error("Error hashing password")
		errorJSON(c, http.StatusInternalServerError, "Error Hashing Password")
		return
	}

	now := h.now()
	user := &models.User{
		UserID:    bson.NewObjectID().Hex(),
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Email:     reg.Email,
		Password:  hashed,
		Role:      models.RoleMunicipal,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Users.Create(ctx, user); err != nil {
		log.WithError(err).Error("Error adding user")
		errorJSON(c, http.StatusInternalServerError, "Error Adding user")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user_id": user.UserID, "role": user.Role})
}

// Login is the municipal email/password login.
func (h *Handler) Login(c *gin.Context) {
	var userLogin models.UserLogin
	if err := c.ShouldBindJSON(&userLogin); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid Request Body")
		return
	}
	if err := validate.Struct(userLogin); err != nil {
		errorJSON(c, http.StatusBadRequest, "Both are required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, err := h.Users.FindByEmail(ctx, userLogin.Email)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.WithError(err).Error("Error finding user")
		}
		errorJSON(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err := utils.ComparePass(userLogin.Password, user.Password); err != nil {
		errorJSON(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	h.issueToken(c, user)
}

func (h *Handler) Logout(c *gin.Context) {
	h.setTokenCookie(c, "", h.now().Add(-1*time.Second))
	c.JSON(http.StatusOK, gin.H{"status": "Logout Successful"})
}

// UpdatePassword changes the signed-in staff member's password.
func (h *Handler) UpdatePassword(c *gin.Context) {
	var updatePass models.PasswordUpdate
	if err := c.ShouldBindJSON(&updatePass); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid Payload")
		return
	}
	if err := validate.Struct(updatePass); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	userID, _ := currentUser(c)
	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		storeError(c, err, "user")
		return
	}
	if user.Password == "" {
		errorJSON(c, http.StatusBadRequest, "Account has no password")
		return
	}
	if err := utils.ComparePass(updatePass.CurrentPassword, user.Password); err != nil {
		errorJSON(c, http.StatusBadRequest, "Incorrect Password")
		return
	}
	hashed, err := utils.HashPass(updatePass.NewPassword)
	if err != nil {
		log.WithError(err).Error("Error hashing password")
		errorJSON(c, http.StatusInternalServerError, "Error encrypting password")
		return
	}
	if err := h.Users.UpdatePassword(ctx, user.UserID, hashed, h.now()); err != nil {
		storeError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

// ForgetPassword mails a reset link. The response is the same whether or not
// the address belongs to an account.
func (h *Handler) ForgetPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid Request Body")
		return
	}
	if err := validate.Struct(req); err != nil {
		errorJSON(c, http.StatusBadRequest, "email is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	const sent = "If the account exists, a reset link has been sent"
	if _, err := h.Users.FindByEmail(ctx, req.Email); err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.WithError(err).Error("Error finding user")
		}
		c.JSON(http.StatusOK, gin.H{"message": sent})
		return
	}

	token, hashed, err := utils.ResetToken()
	if err != nil {
		log.WithError(err).Error("Error creating reset token")
		errorJSON(c, http.StatusInternalServerError, "Something went wrong")
		return
	}
	if err := h.Users.SetPasswordResetToken(ctx, req.Email, hashed, h.now().Add(h.Settings.ResetExpiry)); err != nil {
		log.WithError(err).Error("Error updating token")
		errorJSON(c, http.StatusInternalServerError, "Something went wrong")
		return
	}

	resetURL := fmt.Sprintf("%s/users/resetpassword/reset/%s", h.Settings.PublicURL, token)
	message := fmt.Sprintf("Forgot your password? Reset using the following link:\n%s\nIf you didn't request the password reset ignore this message", resetURL)
	if err := h.Mail.Send(req.Email, "Password Reset Request", message); err != nil {
		log.WithError(err).Error("Error sending reset mail")
		errorJSON(c, http.StatusBadGateway, "Failed to send reset mail")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": sent})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var resetPass struct {
		NewPassword     string `json:"new_password" validate:"required,min=6,max=64"`
		ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
	}
	if err := c.ShouldBindJSON(&resetPass); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid RequestBody")
		return
	}
	if err := validate.Struct(resetPass); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	now := h.now()
	user, err := h.Users.FindByResetToken(ctx, utils.HashSecret(c.Param("resetcode")), now)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.WithError(err).Error("Error finding reset token")
		}
		errorJSON(c, http.StatusBadRequest, "Invalid token or expiry")
		return
	}

	hashed, err := utils.HashPass(resetPass.NewPassword)
	if err != nil {
		log.WithError(err).Error("Error hashing password")
		errorJSON(c, http.StatusInternalServerError, "Error hashing password")
		return
	}
	if err := h.Users.UpdatePassword(ctx, user.UserID, hashed, now); err != nil {
		storeError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password Updated Successfully"})
}
