package etcd

import (
	"context"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/hewenyu/vmark-central/internal/config"
)

// KeyValue 表示一条键值记录及其etcd修订版本
type KeyValue struct {
	Key         string
	Value       []byte
	ModRevision int64
}

// Client 封装了etcd客户端
type Client struct {
	client         *clientv3.Client
	requestTimeout time.Duration
}

// NewClient 创建一个新的etcd客户端
func NewClient(cfg *config.Config) (*Client, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Etcd.Endpoints,
		DialTimeout: cfg.Etcd.DialTimeout,
		Username:    cfg.Etcd.Username,
		Password:    cfg.Etcd.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("创建etcd客户端失败: %w", err)
	}

	return &Client{
		client:         client,
		requestTimeout: cfg.Etcd.RequestTimeout,
	}, nil
}

// Close 关闭etcd客户端连接
func (c *Client) Close() error {
	return c.client.Close()
}

// Ping 检查etcd连接状态
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	_, err := c.client.Get(ctx, "health-check")
	if err != nil {
		return fmt.Errorf("etcd健康检查失败: %w", err)
	}

	return nil
}

// Get 获取键值，键不存在时返回nil
func (c *Client) Get(ctx context.Context, key string) (*KeyValue, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	resp, err := c.client.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("etcd获取键值失败 [%s]: %w", key, err)
	}

	if len(resp.Kvs) == 0 {
		return nil, nil // 键不存在
	}

	kv := resp.Kvs[0]
	return &KeyValue{
		Key:         string(kv.Key),
		Value:       kv.Value,
		ModRevision: kv.ModRevision,
	}, nil
}

// GetWithPrefix 获取指定前缀的所有键值，按键升序排列
func (c *Client) GetWithPrefix(ctx context.Context, prefix string) ([]KeyValue, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	resp, err := c.client.Get(ctx, prefix, clientv3.WithPrefix(),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
	if err != nil {
		return nil, fmt.Errorf("etcd获取前缀键值失败 [%s]: %w", prefix, err)
	}

	return collectKVs(resp), nil
}

// GetRange 获取[start, end)区间内的所有键值，按键升序排列
func (c *Client) GetRange(ctx context.Context, start, end string) ([]KeyValue, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	resp, err := c.client.Get(ctx, start, clientv3.WithRange(end),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
	if err != nil {
		return nil, fmt.Errorf("etcd获取区间键值失败 [%s, %s): %w", start, end, err)
	}

	return collectKVs(resp), nil
}

// Put 设置键值
func (c *Client) Put(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	_, err := c.client.Put(ctx, key, string(value))
	if err != nil {
		return fmt.Errorf("etcd设置键值失败 [%s]: %w", key, err)
	}

	return nil
}

// Delete 删除键值，返回删除的键数量
func (c *Client) Delete(ctx context.Context, key string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	resp, err := c.client.Delete(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("etcd删除键值失败 [%s]: %w", key, err)
	}

	return resp.Deleted, nil
}

// DeleteWithPrefix 删除指定前缀的所有键值
func (c *Client) DeleteWithPrefix(ctx context.Context, prefix string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	resp, err := c.client.Delete(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return 0, fmt.Errorf("etcd删除前缀键值失败 [%s]: %w", prefix, err)
	}

	return resp.Deleted, nil
}

// DeleteRange 删除[start, end)区间内的所有键值
func (c *Client) DeleteRange(ctx context.Context, start, end string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	resp, err := c.client.Delete(ctx, start, clientv3.WithRange(end))
	if err != nil {
		return 0, fmt.Errorf("etcd删除区间键值失败 [%s, %s): %w", start, end, err)
	}

	return resp.Deleted, nil
}

// Commit 以单个事务提交一组操作。
// 当所有比较条件满足时执行thenOps，否则执行elseOps；
// 返回事务是否走了then分支。
func (c *Client) Commit(ctx context.Context, cmps []clientv3.Cmp, thenOps, elseOps []clientv3.Op) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	resp, err := c.client.Txn(ctx).If(cmps...).Then(thenOps...).Else(elseOps...).Commit()
	if err != nil {
		return false, fmt.Errorf("etcd事务提交失败: %w", err)
	}

	return resp.Succeeded, nil
}

// collectKVs 将etcd响应转换为KeyValue列表
func collectKVs(resp *clientv3.GetResponse) []KeyValue {
	result := make([]KeyValue, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		result = append(result, KeyValue{
			Key:         string(kv.Key),
			Value:       kv.Value,
			ModRevision: kv.ModRevision,
		})
	}
	return result
}
