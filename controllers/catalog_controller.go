// controllers/catalog_controller.go
package controllers

import (
	"net/http"

	"makerhub/app"
	"makerhub/catalog"
	"makerhub/store"

	"github.com/gin-gonic/gin"
)

type CatalogController struct{ *Srv }

func NewCatalogController(s *Srv) *CatalogController { return &CatalogController{Srv: s} }

// staff 批量录入工位；已存在的编号跳过
func (cc *CatalogController) ProvisionWorkstations(c *gin.Context) {
	var in struct {
		Location string `json:"location" binding:"required"`
		Numbers  []int  `json:"numbers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	ws, err := cc.Catalog.ProvisionWorkstations(c.Request.Context(), c.GetString("userID"), in.Location, in.Numbers)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"workstations": ws, "created": len(ws)})
}

// 工位列表（可按场地、占用过滤）
func (cc *CatalogController) ListWorkstations(c *gin.Context) {
	f := store.WorkstationFilter{Location: c.Query("location")}
	if v := c.Query("occupied"); v != "" {
		b := v == "true"
		f.Occupied = &b
	}
	ws, err := cc.Catalog.ListWorkstations(c.Request.Context(), f)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"workstations": ws})
}

// staff 下架工位；占用中或仍被在途申请引用时拒绝
func (cc *CatalogController) RemoveWorkstation(c *gin.Context) {
	if err := cc.Catalog.RemoveWorkstation(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// staff 录入一种池化物资
func (cc *CatalogController) AddEquipment(c *gin.Context) {
	var in struct {
		Category    string `json:"category" binding:"required"`
		Name        string `json:"name" binding:"required"`
		Total       int    `json:"total" binding:"required"`
		Description string `json:"description"`
		Location    string `json:"location"`
		Cabinet     string `json:"cabinet"`
		Shelf       int    `json:"shelf"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	eq, err := cc.Catalog.AddEquipment(c.Request.Context(), c.GetString("userID"), catalog.EquipmentInput{
		Category:    in.Category,
		Name:        in.Name,
		Total:       in.Total,
		Description: in.Description,
		Location:    in.Location,
		Cabinet:     in.Cabinet,
		Shelf:       in.Shelf,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, eq)
}

// staff 修改物资信息；总量不能低于在外数量
func (cc *CatalogController) UpdateEquipment(c *gin.Context) {
	var in struct {
		Category    string `json:"category" binding:"required"`
		Name        string `json:"name" binding:"required"`
		Total       int    `json:"total" binding:"required"`
		Description string `json:"description"`
		Location    string `json:"location"`
		Cabinet     string `json:"cabinet"`
		Shelf       int    `json:"shelf"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	eq, err := cc.Catalog.UpdateEquipment(c.Request.Context(), c.GetString("userID"), c.Param("id"), catalog.EquipmentInput{
		Category:    in.Category,
		Name:        in.Name,
		Total:       in.Total,
		Description: in.Description,
		Location:    in.Location,
		Cabinet:     in.Cabinet,
		Shelf:       in.Shelf,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, eq)
}

// 物资列表（可按类目、名称模糊过滤）
func (cc *CatalogController) ListEquipment(c *gin.Context) {
	f := store.EquipmentFilter{Category: c.Query("category"), Name: c.Query("name")}
	eqs, err := cc.Catalog.ListEquipment(c.Request.Context(), f)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"equipment": eqs})
}

// staff 下架物资；未回齐或仍被在途申请引用时拒绝
func (cc *CatalogController) RemoveEquipment(c *gin.Context) {
	if err := cc.Catalog.RemoveEquipment(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// staff 总览：占用、库存与各状态申请数
func (cc *CatalogController) Overview(c *gin.Context) {
	ov, err := cc.Catalog.Overview(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}
